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
	"sort"

	"switchsched/internal/fabric"
	"switchsched/internal/telemetry"
)

// StatisticalScheduler weights grants by each VOQ's reserved capacity, then
// appends a PIM cleanup pass over whatever remains unmatched.
type StatisticalScheduler struct {
	voqBase
	StatRounds       int
	PIMCleanupRounds int
}

// NewStatisticalScheduler constructs a StatisticalScheduler. Conventional
// defaults are fabric.StatRounds (1) and fabric.StatPIMRounds (3).
func NewStatisticalScheduler(rng *rand.Rand, statRounds, pimCleanupRounds int) *StatisticalScheduler {
	return &StatisticalScheduler{
		voqBase:          newVOQBase(rng),
		StatRounds:       statRounds,
		PIMCleanupRounds: pimCleanupRounds,
	}
}

func (s *StatisticalScheduler) ScheduleNode(t fabric.Tick, id fabric.NodeID, node *fabric.Node) error {
	tag, ok := s.tags[id]
	if !ok {
		return ErrUnregistered
	}
	decision := s.decisions[id]
	idle := node.IdleOutputs()

	v := make(map[voqKey]struct{})
	for _, key := range tag.AvailableVOQs() {
		if _, ok := idle[key.Out]; ok {
			v[key] = struct{}{}
		}
	}

	matching := make(map[voqKey]struct{})
	for round := 0; round < s.StatRounds; round++ {
		statRoundMatch(v, idle, decision, s.rng, matching)
	}

	remaining := make([]voqKey, 0, len(v))
	for key := range v {
		remaining = append(remaining, key)
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].In != remaining[j].In {
			return remaining[i].In < remaining[j].In
		}
		return remaining[i].Out < remaining[j].Out
	})
	cleanup, cleanupRounds := pimMatch(remaining, idle, s.rng, s.PIMCleanupRounds)
	for key := range cleanup {
		matching[key] = struct{}{}
	}
	telemetry.RecordMatchingRounds(s.StatRounds + cleanupRounds)
	depth := 0
	for _, key := range tag.AvailableVOQs() {
		depth += tag.Length(key)
	}
	telemetry.SetVOQDepth(fmt.Sprint(id), depth)

	return applyMatching(t, id, tag, node, matching)
}

// statRoundMatch runs one statistical-matching round in place: it removes
// matched (and hence invalidated) keys from v and idle, and records the
// chosen edges into matching.
func statRoundMatch(v map[voqKey]struct{}, idle map[fabric.NodeID]struct{}, decision *fabric.Decision, rng *rand.Rand, matching map[voqKey]struct{}) {
	restrictByOut := make(map[fabric.NodeID]map[fabric.InOut]struct{})
	for key := range v {
		if _, isIdle := idle[key.Out]; !isIdle {
			continue
		}
		if restrictByOut[key.Out] == nil {
			restrictByOut[key.Out] = make(map[fabric.InOut]struct{})
		}
		restrictByOut[key.Out][fabric.InOut{In: key.In, Out: key.Out}] = struct{}{}
	}

	outsRestricted := make([]fabric.NodeID, 0, len(restrictByOut))
	for out := range restrictByOut {
		outsRestricted = append(outsRestricted, out)
	}
	sort.Slice(outsRestricted, func(i, j int) bool { return outsRestricted[i] < outsRestricted[j] })

	// grantsByIn[in][out] = secondary weight m_ij drawn for this (in,out) grant.
	grantsByIn := make(map[fabric.NodeID]map[fabric.NodeID]int)
	for _, out := range outsRestricted {
		restrict := restrictByOut[out]
		in, ok := decision.PickRandomInputRestricted(out, rng, restrict)
		if !ok {
			continue
		}
		capacity := decision.ReservedCapacity(fabric.InOut{In: in, Out: out})
		m := rng.Intn(capacity + 1) // m_ij in {0, ..., X_ij}
		if grantsByIn[in] == nil {
			grantsByIn[in] = make(map[fabric.NodeID]int)
		}
		grantsByIn[in][out] = m
	}

	insGranted := make([]fabric.NodeID, 0, len(grantsByIn))
	for in := range grantsByIn {
		insGranted = append(insGranted, in)
	}
	sort.Slice(insGranted, func(i, j int) bool { return insGranted[i] < insGranted[j] })

	for _, in := range insGranted {
		grants := grantsByIn[in]
		out, weight, ok := pickWeightedOut(grants, rng)
		if !ok || weight == 0 {
			continue
		}
		key := voqKey{In: in, Out: out}
		if _, pending := v[key]; !pending {
			continue
		}
		matching[key] = struct{}{}
		delete(idle, out)
		for k := range v {
			if k.In == in || k.Out == out {
				delete(v, k)
			}
		}
	}
}

// pickWeightedOut draws one output from grants weighted by its recorded
// secondary weight m_ij. Returns ok=false if grants is empty or every
// weight is zero.
func pickWeightedOut(grants map[fabric.NodeID]int, rng *rand.Rand) (fabric.NodeID, int, bool) {
	outs := make([]fabric.NodeID, 0, len(grants))
	total := 0
	for out, w := range grants {
		outs = append(outs, out)
		total += w
	}
	if total == 0 {
		return 0, 0, false
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i] < outs[j] })

	u := int((1 - rng.Float64()) * float64(total))
	if u >= total {
		u = total - 1
	}
	var last fabric.NodeID
	var lastW int
	running := 0
	for _, out := range outs {
		w := grants[out]
		last, lastW = out, w
		running += w
		if running > u {
			return out, w, true
		}
	}
	return last, lastW, true
}
