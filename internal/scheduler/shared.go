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

package scheduler

import (
	"fmt"
	"math/rand"

	"switchsched/internal/fabric"
)

// Scheduler is the capability interface the runner and node substrate use:
// four operations, no class hierarchy. FIFOScheduler, ParallelScheduler and
// StatisticalScheduler each implement it, constructable with no arguments
// beyond their own tuning parameters and a shared RNG.
type Scheduler interface {
	RegisterSwitch(id fabric.NodeID)
	Decision(id fabric.NodeID) (*fabric.Decision, error)
	AddMessageToSchedule(id fabric.NodeID, from fabric.NodeID, msg fabric.Message) error
	ScheduleNode(t fabric.Tick, id fabric.NodeID, node *fabric.Node) error
}

// voqBase is the bookkeeping shared by ParallelScheduler and
// StatisticalScheduler: per-switch VOQTag plus decision structure, both
// keyed by (arrived-from, next-hop). FIFOScheduler does not embed this —
// its queue is keyed by arrived-from alone (see fifo.go).
type voqBase struct {
	rng       *rand.Rand
	tags      map[fabric.NodeID]*VOQTag
	decisions map[fabric.NodeID]*fabric.Decision
}

func newVOQBase(rng *rand.Rand) voqBase {
	return voqBase{
		rng:       rng,
		tags:      make(map[fabric.NodeID]*VOQTag),
		decisions: make(map[fabric.NodeID]*fabric.Decision),
	}
}

func (b *voqBase) RegisterSwitch(id fabric.NodeID) {
	if _, ok := b.tags[id]; ok {
		return
	}
	b.tags[id] = newVOQTag()
	b.decisions[id] = fabric.NewDecision()
}

func (b *voqBase) Decision(id fabric.NodeID) (*fabric.Decision, error) {
	d, ok := b.decisions[id]
	if !ok {
		return nil, fmt.Errorf("%w: switch %d", ErrUnregistered, id)
	}
	return d, nil
}

func (b *voqBase) AddMessageToSchedule(id fabric.NodeID, from fabric.NodeID, msg fabric.Message) error {
	d, err := b.Decision(id)
	if err != nil {
		return err
	}
	nextHop, err := d.NextHop(msg)
	if err != nil {
		return err
	}
	b.tags[id].Enqueue(from, nextHop, msg)
	return nil
}

// applyMatching runs the matching-execution step shared by every policy
// built on voqBase: validate distinct inputs/outputs, then for each matched
// key dequeue the head message and transmit it.
func applyMatching(t fabric.Tick, id fabric.NodeID, tag *VOQTag, node *fabric.Node, matching map[voqKey]struct{}) error {
	seenIn := make(map[fabric.NodeID]struct{}, len(matching))
	seenOut := make(map[fabric.NodeID]struct{}, len(matching))
	for key := range matching {
		if _, dup := seenIn[key.In]; dup {
			return fmt.Errorf("%w: input %d scheduled twice at switch %d", fabric.ErrSchedulingViolation, key.In, id)
		}
		if _, dup := seenOut[key.Out]; dup {
			return fmt.Errorf("%w: output %d scheduled twice at switch %d", fabric.ErrSchedulingViolation, key.Out, id)
		}
		seenIn[key.In] = struct{}{}
		seenOut[key.Out] = struct{}{}
	}
	for key := range matching {
		msg, err := tag.Pop(key)
		if err != nil {
			return err
		}
		if err := node.TransmitToNode(t, key.Out, msg); err != nil {
			return err
		}
	}
	return nil
}
