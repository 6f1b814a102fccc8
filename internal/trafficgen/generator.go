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

// Package trafficgen implements the external message sources and sinks the
// core fabric depends on: Generator injects messages under the
// probabilistic bucket rule, Receiver records arrivals for statistics.
package trafficgen

import (
	"fmt"
	"math/rand"

	"switchsched/internal/fabric"
	"switchsched/internal/telemetry"
	"switchsched/pkg/wrandom"
)

// Generator drives one flow-bearing node: every frame it refills a bucket
// of (flow, remaining-count) pairs from each flow's required capacity, then
// on each tick emits at most one message, choosing whether to emit with
// probability msgsLeft/timeLeft and which flow weighted by its remaining
// count. This converges to emitting exactly required-capacity messages per
// flow by the end of every frame.
type Generator struct {
	node      *fabric.Node
	nextHop   fabric.NodeID
	flows     []fabric.Flow
	frameSize fabric.Tick
	rng       *rand.Rand

	bucket    *wrandom.Set[int] // flow index -> remaining weight
	remaining []int
	msgsLeft  int
	seq       uint64
}

// NewGenerator constructs a Generator for the given flows (all sharing this
// generator as Source()), emitting onto nextHop (the generator's sole
// output neighbor) every tick. frameSize is normally fabric.FrameSize.
func NewGenerator(id fabric.NodeID, nextHop fabric.NodeID, flows []fabric.Flow, frameSize fabric.Tick, rng *rand.Rand) *Generator {
	g := &Generator{
		nextHop:   nextHop,
		flows:     flows,
		frameSize: frameSize,
		rng:       rng,
		remaining: make([]int, len(flows)),
	}
	g.node = fabric.NewNode(id, fabric.Hooks{
		OnTick: g.onTick,
	})
	return g
}

// Node returns the underlying fabric.Node, for link registration.
func (g *Generator) Node() *fabric.Node { return g.node }

// Generated returns the total number of messages this generator has emitted
// so far, across all frames.
func (g *Generator) Generated() uint64 { return g.seq }

func (g *Generator) onTick(t fabric.Tick) error {
	if t%g.frameSize == 0 {
		g.startFrame()
	}
	timeLeft := g.frameSize - t%g.frameSize
	if g.msgsLeft == 0 || timeLeft <= 0 {
		return nil
	}
	if g.rng.Float64() >= float64(g.msgsLeft)/float64(timeLeft) {
		return nil
	}

	idx, err := g.bucket.PickRandom(g.rng)
	if err != nil {
		return fmt.Errorf("generator %d: bucket pick with msgsLeft=%d: %w", g.node.ID, g.msgsLeft, err)
	}
	flow := g.flows[idx]
	g.remaining[idx]--
	if g.remaining[idx] == 0 {
		g.bucket.Remove(idx)
	} else {
		_ = g.bucket.Add(idx, float64(g.remaining[idx]))
	}
	g.msgsLeft--

	g.seq++
	msg := fabric.Message{
		Source:       flow.Source(),
		Destination:  flow.Sink(),
		CreationTick: t,
		Seq:          g.seq,
	}
	telemetry.RecordGeneration("all")
	return g.node.TransmitToNode(t, g.nextHop, msg)
}

func (g *Generator) startFrame() {
	g.bucket = wrandom.New[int]()
	g.msgsLeft = 0
	for i, flow := range g.flows {
		g.remaining[i] = flow.RequiredCapacity()
		g.msgsLeft += flow.RequiredCapacity()
		_ = g.bucket.Add(i, float64(flow.RequiredCapacity()))
	}
}
