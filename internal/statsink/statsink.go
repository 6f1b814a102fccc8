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

// Package statsink ships per-frame simulation summaries to a destination:
// stdout, a JSONL file, or Redis. All three implement the same small
// interface so cmd/switchsim can select one by flag.
package statsink

import "fmt"

// FrameStats summarizes one completed frame of simulation.
type FrameStats struct {
	Frame            int     `json:"frame"`
	Policy           string  `json:"policy"`
	MessagesDelivered int    `json:"messages_delivered"`
	MessagesGenerated int    `json:"messages_generated"`
	MeanAgeTicks     float64 `json:"mean_age_ticks"`
}

func (s FrameStats) String() string {
	return fmt.Sprintf("frame=%d policy=%s delivered=%d generated=%d mean_age=%.2f",
		s.Frame, s.Policy, s.MessagesDelivered, s.MessagesGenerated, s.MeanAgeTicks)
}

// Sink receives one FrameStats per completed frame. Implementations must
// tolerate being called from a single goroutine only — the simulator core
// is single-threaded and never calls a Sink concurrently with itself.
type Sink interface {
	OnFrame(s FrameStats) error
	Close() error
}
