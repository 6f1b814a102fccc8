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
	"testing"

	"switchsched/internal/fabric"
	"switchsched/internal/linktransport"
)

// newSwitch builds a switch node whose ScheduleHook/Send delegate to sched,
// wired with an input link from each of gens and an output link to each of
// outs (all rate 1), with every generator's traffic to each of outs routed
// straight to that output.
func newSwitch(t *testing.T, sched Scheduler, swID fabric.NodeID, gens, outs []fabric.NodeID) (*fabric.Node, map[fabric.NodeID]*fabric.Node, map[fabric.NodeID]*fabric.Node) {
	t.Helper()
	sched.RegisterSwitch(swID)
	decision, err := sched.Decision(swID)
	if err != nil {
		t.Fatal(err)
	}

	var sw *fabric.Node
	sw = fabric.NewNode(swID, fabric.Hooks{
		ScheduleHook: func(tk fabric.Tick, from fabric.NodeID, msg fabric.Message) error {
			return sched.AddMessageToSchedule(swID, from, msg)
		},
		Send: func(tk fabric.Tick) error {
			return sched.ScheduleNode(tk, swID, sw)
		},
	})

	genNodes := make(map[fabric.NodeID]*fabric.Node, len(gens))
	for _, g := range gens {
		genNodes[g] = fabric.NewNode(g, fabric.Hooks{})
	}
	recvNodes := make(map[fabric.NodeID]*fabric.Node, len(outs))
	for _, r := range outs {
		recvNodes[r] = fabric.NewNode(r, fabric.Hooks{})
	}

	for _, g := range gens {
		l, err := linktransport.New(g, swID, 1)
		if err != nil {
			t.Fatal(err)
		}
		genNodes[g].RegisterOutLink(swID, sw, l)
		sw.RegisterInLink(g, l)
	}
	for i, r := range outs {
		l, err := linktransport.New(swID, r, 1)
		if err != nil {
			t.Fatal(err)
		}
		sw.RegisterOutLink(r, recvNodes[r], l)
		recvNodes[r].RegisterInLink(swID, l)
		// route every generator's traffic to outs[i] for this test helper.
		for _, g := range gens {
			decision.PutDecision(g, r, r)
		}
		_ = i
	}
	return sw, genNodes, recvNodes
}

func TestFIFOSingleRequestSingleGrant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sched := NewFIFOScheduler(rng)
	sw, gens, recvs := newSwitch(t, sched, 100, []fabric.NodeID{1}, []fabric.NodeID{2})

	msg := fabric.Message{Source: 1, Destination: 2, CreationTick: 0, Seq: 1}
	if err := gens[1].TransmitToNode(0, 100, msg); err != nil {
		t.Fatal(err)
	}

	// Arrival completes at tick 1: the switch drains it into the
	// scheduler (phase 2) and Send (phase 4) ships it the same tick.
	if err := sw.Tick(1); err != nil {
		t.Fatal(err)
	}
	if sw.IsIdle(2) {
		t.Fatal("Send should have claimed the output port this tick")
	}

	if err := recvs[2].Tick(2); err != nil {
		t.Fatal(err)
	}
}

func TestFIFOContendingInputsGrantExactlyOne(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	sched := NewFIFOScheduler(rng)
	sw, gens, _ := newSwitch(t, sched, 200, []fabric.NodeID{1, 2}, []fabric.NodeID{9})

	// Re-route both generators to the same output so they collide.
	d, _ := sched.Decision(200)
	d.PutDecision(1, 9, 9)
	d.PutDecision(2, 9, 9)

	if err := gens[1].TransmitToNode(0, 200, fabric.Message{Source: 1, Destination: 9, Seq: 1}); err != nil {
		t.Fatal(err)
	}
	if err := gens[2].TransmitToNode(0, 200, fabric.Message{Source: 2, Destination: 9, Seq: 2}); err != nil {
		t.Fatal(err)
	}

	if err := sw.Tick(1); err != nil {
		t.Fatal(err)
	}

	// Exactly one of the two queues must have drained its message this
	// tick (the other stays queued for next tick); the output port can
	// only carry one grant.
	if sw.IsIdle(9) {
		t.Fatal("the winning grant should have claimed output 9")
	}
}
