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
	"fmt"
	"io"
)

// ConsoleSink writes one line per frame to an io.Writer (normally os.Stdout).
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink constructs a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) OnFrame(s FrameStats) error {
	_, err := fmt.Fprintln(c.w, s.String())
	return err
}

func (c *ConsoleSink) Close() error { return nil }
