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
	"bufio"
	"encoding/json"
	"os"
)

// FileSink is a buffered JSONL sink: one FrameStats per line, appended to a
// file. Flush is explicit rather than timer-driven, since the simulator
// itself is single-threaded and ticks deterministically rather than on a
// wall-clock schedule.
type FileSink struct {
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
}

// NewFileSink opens (or creates) the file at path in append mode with a
// buffered writer.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1<<20)
	return &FileSink{f: f, w: w, enc: json.NewEncoder(w)}, nil
}

func (s *FileSink) OnFrame(stats FrameStats) error {
	return s.enc.Encode(&stats)
}

// Flush forces buffered data to be written to disk.
func (s *FileSink) Flush() error {
	return s.w.Flush()
}

func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// ReadAllFrames reads every FrameStats record from a file written by
// FileSink. Intended for offline analysis, not the hot simulation path.
func ReadAllFrames(path string) ([]FrameStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []FrameStats
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 1<<20)
	scanner.Buffer(buf, 1<<26)
	for scanner.Scan() {
		var s FrameStats
		if err := json.Unmarshal(scanner.Bytes(), &s); err == nil {
			out = append(out, s)
		}
	}
	return out, scanner.Err()
}
