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
	"math/rand"
	"sort"

	"switchsched/internal/fabric"
	"switchsched/internal/telemetry"
)

// ParallelScheduler implements Parallel-Iterative Matching: request/grant/
// accept rounds, up to MaxRounds (0 means run to a maximal matching).
type ParallelScheduler struct {
	voqBase
	MaxRounds int
}

// NewParallelScheduler constructs a ParallelScheduler. maxRounds <= 0 means
// "run to maximal" (fabric.PIMRounds is the conventional default of 4).
func NewParallelScheduler(rng *rand.Rand, maxRounds int) *ParallelScheduler {
	return &ParallelScheduler{voqBase: newVOQBase(rng), MaxRounds: maxRounds}
}

func (s *ParallelScheduler) ScheduleNode(t fabric.Tick, id fabric.NodeID, node *fabric.Node) error {
	tag, ok := s.tags[id]
	if !ok {
		return ErrUnregistered
	}
	matching, rounds := pimMatch(tag.AvailableVOQs(), node.IdleOutputs(), s.rng, s.MaxRounds)
	telemetry.RecordMatchingRounds(rounds)
	return applyMatching(t, id, tag, node, matching)
}

// pimMatch runs the PIM request/grant/accept rounds over the candidate set
// v (a snapshot of non-empty VOQ keys) and the idle output set o. It
// terminates after maxRounds rounds, or immediately once v is empty;
// maxRounds <= 0 means "no cap" — run until v is empty (at most len(v)
// rounds, since every round that adds an edge shrinks v by at least one
// input and one output). Returns the matching and the number of rounds run.
func pimMatch(v []voqKey, o map[fabric.NodeID]struct{}, rng *rand.Rand, maxRounds int) (map[voqKey]struct{}, int) {
	matching := make(map[voqKey]struct{})
	remaining := make([]voqKey, 0, len(v))
	for _, key := range v {
		if _, idle := o[key.Out]; idle {
			remaining = append(remaining, key)
		}
	}

	round := 0
	for ; len(remaining) > 0 && (maxRounds <= 0 || round < maxRounds); round++ {
		requestsByOut := make(map[fabric.NodeID][]fabric.NodeID)
		for _, key := range remaining {
			requestsByOut[key.Out] = append(requestsByOut[key.Out], key.In)
		}
		outsRequested := make([]fabric.NodeID, 0, len(requestsByOut))
		for out := range requestsByOut {
			outsRequested = append(outsRequested, out)
		}
		sort.Slice(outsRequested, func(i, j int) bool { return outsRequested[i] < outsRequested[j] })

		grantsByIn := make(map[fabric.NodeID][]fabric.NodeID) // in -> outs that granted to it
		for _, out := range outsRequested {
			ins := requestsByOut[out]
			winner := ins[rng.Intn(len(ins))]
			grantsByIn[winner] = append(grantsByIn[winner], out)
		}
		insGranted := make([]fabric.NodeID, 0, len(grantsByIn))
		for in := range grantsByIn {
			insGranted = append(insGranted, in)
		}
		sort.Slice(insGranted, func(i, j int) bool { return insGranted[i] < insGranted[j] })

		roundMatchedIn := make(map[fabric.NodeID]struct{})
		roundMatchedOut := make(map[fabric.NodeID]struct{})
		for _, in := range insGranted {
			outs := grantsByIn[in]
			out := outs[rng.Intn(len(outs))]
			matching[voqKey{In: in, Out: out}] = struct{}{}
			roundMatchedIn[in] = struct{}{}
			roundMatchedOut[out] = struct{}{}
		}

		next := remaining[:0:0]
		for _, key := range remaining {
			_, inGone := roundMatchedIn[key.In]
			_, outGone := roundMatchedOut[key.Out]
			if !inGone && !outGone {
				next = append(next, key)
			}
		}
		remaining = next
	}
	return matching, round
}

// MaxIterTrial runs one PIM trial over a fully-connected n-input, n-output
// candidate set (every input holds a pending VOQ to every output it doesn't
// share a terminal with, every output idle) to maximality, and returns the
// number of rounds consumed. It exists for harnesses that want to measure
// PIM's round-count growth without standing up a full fabric/scheduler
// topology.
func MaxIterTrial(n int, rng *rand.Rand) int {
	v := make([]voqKey, 0, n*(n-1))
	o := make(map[fabric.NodeID]struct{}, n)
	for out := fabric.NodeID(1); out <= fabric.NodeID(n); out++ {
		o[out] = struct{}{}
	}
	for in := fabric.NodeID(1); in <= fabric.NodeID(n); in++ {
		for out := fabric.NodeID(1); out <= fabric.NodeID(n); out++ {
			if in == out {
				continue
			}
			v = append(v, voqKey{In: in, Out: out})
		}
	}
	_, rounds := pimMatch(v, o, rng, 0)
	return rounds
}
