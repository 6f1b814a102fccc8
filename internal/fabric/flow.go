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

package fabric

import "fmt"

// Flow is an ordered path of >= 2 switch-capable nodes (source first, sink
// last) together with a positive required capacity in messages per frame.
// Immutable once constructed; the (Source, Sink) pair must be unique per
// network.
type Flow struct {
	path             []NodeID
	requiredCapacity int
}

// NewFlow validates and constructs a Flow. path must have at least two
// nodes and requiredCapacity must be positive.
func NewFlow(path []NodeID, requiredCapacity int) (Flow, error) {
	if len(path) < 2 {
		return Flow{}, fmt.Errorf("%w: flow path must have at least 2 nodes, got %d", ErrConstruction, len(path))
	}
	if requiredCapacity <= 0 {
		return Flow{}, fmt.Errorf("%w: flow required capacity must be positive, got %d", ErrConstruction, requiredCapacity)
	}
	cp := make([]NodeID, len(path))
	copy(cp, path)
	return Flow{path: cp, requiredCapacity: requiredCapacity}, nil
}

// Source returns the first node on the path (the generator).
func (f Flow) Source() NodeID { return f.path[0] }

// Sink returns the last node on the path (the receiver).
func (f Flow) Sink() NodeID { return f.path[len(f.path)-1] }

// Path returns a copy of the ordered node path.
func (f Flow) Path() []NodeID {
	out := make([]NodeID, len(f.path))
	copy(out, f.path)
	return out
}

// RequiredCapacity returns the flow's messages-per-frame requirement.
func (f Flow) RequiredCapacity() int { return f.requiredCapacity }

// Hops returns the (previous, next) node pairs along the path, one per
// intermediate switch: Hops()[i] = (path[i], path[i+2]) is the (arrived-from,
// next-hop) pair seen at switch path[i+1].
type Hop struct {
	Switch   NodeID
	Previous NodeID
	Next     NodeID
}

func (f Flow) Hops() []Hop {
	if len(f.path) < 3 {
		return nil
	}
	out := make([]Hop, 0, len(f.path)-2)
	for i := 1; i < len(f.path)-1; i++ {
		out = append(out, Hop{Switch: f.path[i], Previous: f.path[i-1], Next: f.path[i+1]})
	}
	return out
}

func (f Flow) String() string {
	return fmt.Sprintf("Flow%v@%d", f.path, f.requiredCapacity)
}
