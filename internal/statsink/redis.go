// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statsink

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisSink appends each frame's stats as a JSON blob to a Redis list (via
// RPUSH), so an external dashboard can tail it with LRANGE/BLPOP without the
// simulator knowing anything about its consumers.
type RedisSink struct {
	c   *redis.Client
	ctx context.Context
	key string
}

// NewRedisSink constructs a RedisSink against addr (e.g. "127.0.0.1:6379"),
// pushing onto list key.
func NewRedisSink(ctx context.Context, addr, key string) *RedisSink {
	return &RedisSink{
		c:   redis.NewClient(&redis.Options{Addr: addr}),
		ctx: ctx,
		key: key,
	}
}

func (s *RedisSink) OnFrame(stats FrameStats) error {
	b, err := json.Marshal(&stats)
	if err != nil {
		return err
	}
	if err := s.c.RPush(s.ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("statsink: redis rpush key %q: %w", s.key, err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.c.Close()
}
