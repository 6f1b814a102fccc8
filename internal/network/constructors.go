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
	"fmt"
	"math/rand"

	"switchsched/internal/fabric"
	"switchsched/internal/linktransport"
	"switchsched/internal/scheduler"
	"switchsched/internal/trafficgen"
)

// Built is the handle returned by the network constructors: the runnable
// Network plus the generator/receiver objects callers need for statistics
// and further wiring.
type Built struct {
	Net        *Network
	Generators []*trafficgen.Generator
	Receivers  []*trafficgen.Receiver
}

func newSwitchNode(id fabric.NodeID, sched scheduler.Scheduler) *fabric.Node {
	sched.RegisterSwitch(id)
	var sw *fabric.Node
	sw = fabric.NewNode(id, fabric.Hooks{
		ReceiveHook: func(t fabric.Tick, from fabric.NodeID, msg fabric.Message) error {
			return fmt.Errorf("%w: switch %d received %s addressed to itself", fabric.ErrRouting, id, msg)
		},
		ScheduleHook: func(t fabric.Tick, from fabric.NodeID, msg fabric.Message) error {
			return sched.AddMessageToSchedule(id, from, msg)
		},
		Send: func(t fabric.Tick) error {
			return sched.ScheduleNode(t, id, sw)
		},
	})
	return sw
}

func wire(a, b *fabric.Node, rate fabric.Tick) error {
	l, err := linktransport.New(a.ID, b.ID, rate)
	if err != nil {
		return err
	}
	a.RegisterOutLink(b.ID, b, l)
	b.RegisterInLink(a.ID, l)
	return nil
}

// NewUniformNetwork builds the scenario-S3 topology: n generators, n
// receivers, one n x n switch between them. Every generator has a flow to
// every receiver with capacity floor(fabric.SafeCapacity / n).
func NewUniformNetwork(n int, sched scheduler.Scheduler, rng *rand.Rand, linkRate fabric.Tick) (*Built, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: network size must be positive, got %d", fabric.ErrConstruction, n)
	}
	capacity := fabric.SafeCapacity / n
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: n=%d too large for SafeCapacity=%d (per-flow capacity would be 0)", fabric.ErrConstruction, n, fabric.SafeCapacity)
	}

	const switchID fabric.NodeID = 1
	net := NewNetwork(sched)
	sw := newSwitchNode(switchID, sched)
	net.AddNode(sw)

	built := &Built{Net: net}
	receiverIDs := make([]fabric.NodeID, n)
	for i := 0; i < n; i++ {
		recvID := fabric.NodeID(1000 + i)
		receiverIDs[i] = recvID
		r := trafficgen.NewReceiver(recvID)
		if err := wire(sw, r.Node(), linkRate); err != nil {
			return nil, err
		}
		net.AddNode(r.Node())
		built.Receivers = append(built.Receivers, r)
	}

	for i := 0; i < n; i++ {
		genID := fabric.NodeID(2000 + i)
		flows := make([]fabric.Flow, n)
		for j := 0; j < n; j++ {
			flow, err := fabric.NewFlow([]fabric.NodeID{genID, switchID, receiverIDs[j]}, capacity)
			if err != nil {
				return nil, err
			}
			flows[j] = flow
		}
		g := trafficgen.NewGenerator(genID, switchID, flows, fabric.Tick(fabric.FrameSize), rng)
		if err := wire(g.Node(), sw, linkRate); err != nil {
			return nil, err
		}
		net.AddNode(g.Node())
		built.Generators = append(built.Generators, g)
		for _, flow := range flows {
			if err := net.AddFlow(flow); err != nil {
				return nil, err
			}
		}
	}
	return built, nil
}

// NewPrivilegedNetwork builds the scenario-S4 topology: n generators, n
// receivers, one switch, where generator i (1-indexed) is given capacity
// i*p to every receiver, p = 2*SafeCapacity / (n*(n+1)) — so the reserved
// capacity toward each receiver sums to at most SafeCapacity (exactly, when
// the division leaves no remainder).
func NewPrivilegedNetwork(n int, sched scheduler.Scheduler, rng *rand.Rand, linkRate fabric.Tick) (*Built, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: network size must be positive, got %d", fabric.ErrConstruction, n)
	}
	p := 2 * fabric.SafeCapacity / (n * (n + 1))
	if p <= 0 {
		return nil, fmt.Errorf("%w: n=%d too large for SafeCapacity=%d (p would be 0)", fabric.ErrConstruction, n, fabric.SafeCapacity)
	}

	const switchID fabric.NodeID = 1
	net := NewNetwork(sched)
	sw := newSwitchNode(switchID, sched)
	net.AddNode(sw)

	built := &Built{Net: net}
	receiverIDs := make([]fabric.NodeID, n)
	for i := 0; i < n; i++ {
		recvID := fabric.NodeID(1000 + i)
		receiverIDs[i] = recvID
		r := trafficgen.NewReceiver(recvID)
		if err := wire(sw, r.Node(), linkRate); err != nil {
			return nil, err
		}
		net.AddNode(r.Node())
		built.Receivers = append(built.Receivers, r)
	}

	for i := 0; i < n; i++ {
		genID := fabric.NodeID(2000 + i)
		capacity := (i + 1) * p // generators are 1-indexed: generator i gets (i+1)*p
		flows := make([]fabric.Flow, n)
		for j := 0; j < n; j++ {
			flow, err := fabric.NewFlow([]fabric.NodeID{genID, switchID, receiverIDs[j]}, capacity)
			if err != nil {
				return nil, err
			}
			flows[j] = flow
		}
		g := trafficgen.NewGenerator(genID, switchID, flows, fabric.Tick(fabric.FrameSize), rng)
		if err := wire(g.Node(), sw, linkRate); err != nil {
			return nil, err
		}
		net.AddNode(g.Node())
		built.Generators = append(built.Generators, g)
		for _, flow := range flows {
			if err := net.AddFlow(flow); err != nil {
				return nil, err
			}
		}
	}
	return built, nil
}
