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

package network

import (
	"math/rand"
	"testing"

	"switchsched/internal/fabric"
	"switchsched/internal/scheduler"
	"switchsched/internal/trafficgen"
)

// TestTrivialFIFOPath is scenario S1: G -> S -> R, one flow, capacity 1,
// link rate 1. G holds 5 messages created at tick 0 and sends the next one
// whenever its output port is idle. R must receive all 5 in order within
// 20 ticks.
func TestTrivialFIFOPath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sched := scheduler.NewFIFOScheduler(rng)
	net := NewNetwork(sched)

	const genID, swID, recvID fabric.NodeID = 1, 2, 3
	sw := newSwitchNode(swID, sched)
	r := trafficgen.NewReceiver(recvID)
	g := fabric.NewNode(genID, fabric.Hooks{})

	if err := wire(g, sw, 1); err != nil {
		t.Fatal(err)
	}
	if err := wire(sw, r.Node(), 1); err != nil {
		t.Fatal(err)
	}
	net.AddNode(g)
	net.AddNode(sw)
	net.AddNode(r.Node())

	flow, err := fabric.NewFlow([]fabric.NodeID{genID, swID, recvID}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := net.AddFlow(flow); err != nil {
		t.Fatal(err)
	}

	pending := make([]fabric.Message, 5)
	for i := range pending {
		pending[i] = fabric.Message{Source: genID, Destination: recvID, CreationTick: 0, Seq: uint64(i)}
	}

	// Two rate-1 hops in series: drive enough ticks for all 5 messages to
	// clear both the generator->switch and switch->receiver links.
	const runLength = 20
	for tk := fabric.Tick(0); tk < runLength; tk++ {
		if len(pending) > 0 && g.IsIdle(swID) {
			if err := g.TransmitToNode(tk, swID, pending[0]); err != nil {
				t.Fatal(err)
			}
			pending = pending[1:]
		}
		for _, node := range net.nodes {
			if err := node.Tick(tk); err != nil {
				t.Fatal(err)
			}
		}
	}

	got := r.Arrivals()
	if len(got) != 5 {
		t.Fatalf("want 5 arrivals, got %d", len(got))
	}
	for i, a := range got {
		if a.Msg.Seq != uint64(i) {
			t.Fatalf("arrival %d: want seq %d, got %d (out of order)", i, i, a.Msg.Seq)
		}
	}
}

// TestFIFOSwitchWithTwoOutputs is scenario S2: one switch, one generator
// feeding two receivers through two distinct flows, FIFO scheduling. Both
// receivers must see every message sent to them, in send order, regardless
// of interleaving on the shared generator->switch link.
func TestFIFOSwitchWithTwoOutputs(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	sched := scheduler.NewFIFOScheduler(rng)
	net := NewNetwork(sched)

	const genID, swID, recv1, recv2 fabric.NodeID = 1, 2, 3, 4
	sw := newSwitchNode(swID, sched)
	r1 := trafficgen.NewReceiver(recv1)
	r2 := trafficgen.NewReceiver(recv2)
	g := fabric.NewNode(genID, fabric.Hooks{})

	if err := wire(g, sw, 1); err != nil {
		t.Fatal(err)
	}
	if err := wire(sw, r1.Node(), 1); err != nil {
		t.Fatal(err)
	}
	if err := wire(sw, r2.Node(), 1); err != nil {
		t.Fatal(err)
	}
	net.AddNode(g)
	net.AddNode(sw)
	net.AddNode(r1.Node())
	net.AddNode(r2.Node())

	flow1, err := fabric.NewFlow([]fabric.NodeID{genID, swID, recv1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	flow2, err := fabric.NewFlow([]fabric.NodeID{genID, swID, recv2}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := net.AddFlow(flow1); err != nil {
		t.Fatal(err)
	}
	if err := net.AddFlow(flow2); err != nil {
		t.Fatal(err)
	}

	var pending []fabric.Message
	for i := 0; i < 3; i++ {
		pending = append(pending,
			fabric.Message{Source: genID, Destination: recv1, CreationTick: 0, Seq: uint64(2 * i)},
			fabric.Message{Source: genID, Destination: recv2, CreationTick: 0, Seq: uint64(2*i + 1)},
		)
	}

	const runLength = 30
	for tk := fabric.Tick(0); tk < runLength; tk++ {
		if len(pending) > 0 && g.IsIdle(swID) {
			if err := g.TransmitToNode(tk, swID, pending[0]); err != nil {
				t.Fatal(err)
			}
			pending = pending[1:]
		}
		for _, node := range net.nodes {
			if err := node.Tick(tk); err != nil {
				t.Fatal(err)
			}
		}
	}

	got1, got2 := r1.Arrivals(), r2.Arrivals()
	if len(got1) != 3 {
		t.Fatalf("receiver 1: want 3 arrivals, got %d", len(got1))
	}
	if len(got2) != 3 {
		t.Fatalf("receiver 2: want 3 arrivals, got %d", len(got2))
	}
	for i, a := range got1 {
		if a.Msg.Seq != uint64(2*i) {
			t.Fatalf("receiver 1 arrival %d: want seq %d, got %d", i, 2*i, a.Msg.Seq)
		}
	}
	for i, a := range got2 {
		if a.Msg.Seq != uint64(2*i+1) {
			t.Fatalf("receiver 2 arrival %d: want seq %d, got %d", i, 2*i+1, a.Msg.Seq)
		}
	}
}

// TestPrivilegedNetworkStatisticalOrdering is scenario S4: in a privileged
// network under statistical matching, generator i holds (i+1)*p reserved
// capacity to every receiver, so higher-indexed generators should see no
// fewer deliveries than lower-indexed ones over a full frame. This checks
// relative ordering only — statistical matching's random grant weighting
// means exact counts are not reproducible across PRNG implementations.
func TestPrivilegedNetworkStatisticalOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sched := scheduler.NewStatisticalScheduler(rng, fabric.StatRounds, fabric.StatPIMRounds)

	const n = 4
	built, err := NewPrivilegedNetwork(n, sched, rng, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := built.Net.Run(1); err != nil {
		t.Fatal(err)
	}

	counts := make([]int, n)
	for i, g := range built.Generators {
		for _, r := range built.Receivers {
			counts[i] += len(r.FromSource(g.Node().ID))
		}
	}

	for i := 1; i < n; i++ {
		if counts[i] < counts[i-1] {
			t.Fatalf("generator %d (higher privilege) delivered fewer messages (%d) than generator %d (%d)", i, counts[i], i-1, counts[i-1])
		}
	}
}

func TestAddFlowThenRemoveFlowRestoresDecisionStructure(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	sched := scheduler.NewParallelScheduler(rng, 4)
	net := NewNetwork(sched)

	const genID, swID, recvID fabric.NodeID = 1, 2, 3
	sw := newSwitchNode(swID, sched)
	net.AddNode(sw)

	flow, err := fabric.NewFlow([]fabric.NodeID{genID, swID, recvID}, 7)
	if err != nil {
		t.Fatal(err)
	}
	if err := net.AddFlow(flow); err != nil {
		t.Fatal(err)
	}

	d, err := sched.Decision(swID)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.ReservedCapacity(fabric.InOut{In: genID, Out: recvID}); got != 7 {
		t.Fatalf("want reserved capacity 7 after AddFlow, got %d", got)
	}
	if hop, err := d.NextHop(fabric.Message{Source: genID, Destination: recvID}); err != nil || hop != recvID {
		t.Fatalf("want next hop %d, got %d err=%v", recvID, hop, err)
	}

	if err := net.RemoveFlow(flow); err != nil {
		t.Fatal(err)
	}
	if got := d.ReservedCapacity(fabric.InOut{In: genID, Out: recvID}); got != 0 {
		t.Fatalf("want reserved capacity 0 after RemoveFlow, got %d", got)
	}
	if _, err := d.NextHop(fabric.Message{Source: genID, Destination: recvID}); err == nil {
		t.Fatal("want routing error after RemoveFlow, got none")
	}
}

func TestAddFlowDuplicateIsRejected(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sched := scheduler.NewFIFOScheduler(rng)
	net := NewNetwork(sched)
	sw := newSwitchNode(2, sched)
	net.AddNode(sw)

	flow, _ := fabric.NewFlow([]fabric.NodeID{1, 2, 3}, 1)
	if err := net.AddFlow(flow); err != nil {
		t.Fatal(err)
	}
	if err := net.AddFlow(flow); err == nil {
		t.Fatal("want error re-adding the same (source, sink) flow")
	}
}
