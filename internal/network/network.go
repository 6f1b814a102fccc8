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

// Package network wires nodes, links and flows into a runnable topology: a
// fixed node iteration order, flow-driven decision-structure population,
// and the top-level tick loop.
package network

import (
	"fmt"

	"switchsched/internal/fabric"
	"switchsched/internal/scheduler"
)

type flowKey struct {
	source, sink fabric.NodeID
}

// Network owns every node in a topology plus the flows routed across it.
// Nodes are ticked once per simulation tick, in the fixed order they were
// added, so that a given network instance's behavior is deterministic given
// a seeded RNG.
type Network struct {
	Scheduler scheduler.Scheduler

	nodes []*fabric.Node
	flows map[flowKey]fabric.Flow
}

// NewNetwork constructs an empty network around sched. Switch nodes must be
// registered with sched (RegisterSwitch) by the caller before AddFlow.
func NewNetwork(sched scheduler.Scheduler) *Network {
	return &Network{
		Scheduler: sched,
		flows:     make(map[flowKey]fabric.Flow),
	}
}

// AddNode registers node in the tick order. Order of AddNode calls is the
// order nodes are ticked each simulation tick.
func (n *Network) AddNode(node *fabric.Node) {
	n.nodes = append(n.nodes, node)
}

// AddFlow installs flow: for every intermediate switch, it inserts a
// next-hop entry for (flow.Source(), flow.Sink()) and increments reserved
// capacity for the (previous-hop, next-hop) pair by flow.RequiredCapacity().
// The (source, sink) pair must be unique in this network.
func (n *Network) AddFlow(flow fabric.Flow) error {
	key := flowKey{flow.Source(), flow.Sink()}
	if _, exists := n.flows[key]; exists {
		return fmt.Errorf("%w: flow %d->%d already installed", fabric.ErrConstruction, flow.Source(), flow.Sink())
	}
	for _, hop := range flow.Hops() {
		d, err := n.Scheduler.Decision(hop.Switch)
		if err != nil {
			return err
		}
		d.PutDecision(flow.Source(), flow.Sink(), hop.Next)
		if err := d.TranslateReservedCapacity(fabric.InOut{In: hop.Previous, Out: hop.Next}, flow.RequiredCapacity()); err != nil {
			return err
		}
	}
	n.flows[key] = flow
	return nil
}

// RemoveFlow reverses AddFlow exactly: removes every next-hop entry and
// reserved-capacity delta the flow installed.
func (n *Network) RemoveFlow(flow fabric.Flow) error {
	key := flowKey{flow.Source(), flow.Sink()}
	if _, exists := n.flows[key]; !exists {
		return fmt.Errorf("%w: flow %d->%d not installed", fabric.ErrConstruction, flow.Source(), flow.Sink())
	}
	for _, hop := range flow.Hops() {
		d, err := n.Scheduler.Decision(hop.Switch)
		if err != nil {
			return err
		}
		d.RemoveDecision(flow.Source(), flow.Sink())
		if err := d.TranslateReservedCapacity(fabric.InOut{In: hop.Previous, Out: hop.Next}, -flow.RequiredCapacity()); err != nil {
			return err
		}
	}
	delete(n.flows, key)
	return nil
}

// Run ticks every node, in AddNode order, for frames*fabric.FrameSize
// ticks starting at tick 0.
func (n *Network) Run(frames int) error {
	total := fabric.Tick(frames) * fabric.Tick(fabric.FrameSize)
	for t := fabric.Tick(0); t < total; t++ {
		for _, node := range n.nodes {
			if err := node.Tick(t); err != nil {
				return fmt.Errorf("tick %d, node %d: %w", t, node.ID, err)
			}
		}
	}
	return nil
}
