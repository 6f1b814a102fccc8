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
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"

	"switchsched/internal/fabric"
	"switchsched/internal/scheduler"
	"switchsched/internal/trafficgen"
)

func xxhashSeed(s string, seed uint64) uint64 {
	return xxhash.Sum64String(s) ^ seed
}

// NewPartitionedNetwork builds a multi-switch topology beyond the single-
// switch scenarios in the core design: nGenerators generators and
// nReceivers receivers are distributed deterministically across nSwitches
// switches by rendezvous hashing on the generator's id, so a given
// generator always lands on the same switch across re-runs with the same
// topology shape regardless of switch-count-independent placement drift.
// Every switch is linked to every receiver, and each generator has a flow
// through its assigned switch to every receiver, with per-flow capacity
// floor(SafeCapacity / nReceivers).
func NewPartitionedNetwork(nGenerators, nReceivers, nSwitches int, sched scheduler.Scheduler, rng *rand.Rand, linkRate fabric.Tick) (*Built, error) {
	if nGenerators <= 0 || nReceivers <= 0 || nSwitches <= 0 {
		return nil, fmt.Errorf("%w: generator/receiver/switch counts must be positive", fabric.ErrConstruction)
	}
	capacity := fabric.SafeCapacity / nReceivers
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: nReceivers=%d too large for SafeCapacity=%d", fabric.ErrConstruction, nReceivers, fabric.SafeCapacity)
	}

	switchNames := make([]string, nSwitches)
	switchIDs := make([]fabric.NodeID, nSwitches)
	for i := 0; i < nSwitches; i++ {
		switchIDs[i] = fabric.NodeID(1 + i)
		switchNames[i] = strconv.Itoa(i)
	}
	placer := rendezvous.New(switchNames, xxhashSeed)

	net := NewNetwork(sched)
	switches := make(map[string]*fabric.Node, nSwitches)
	for i, name := range switchNames {
		sw := newSwitchNode(switchIDs[i], sched)
		switches[name] = sw
		net.AddNode(sw)
	}

	built := &Built{Net: net}
	receiverIDs := make([]fabric.NodeID, nReceivers)
	for i := 0; i < nReceivers; i++ {
		recvID := fabric.NodeID(10000 + i)
		receiverIDs[i] = recvID
		r := trafficgen.NewReceiver(recvID)
		for _, sw := range switches {
			if err := wire(sw, r.Node(), linkRate); err != nil {
				return nil, err
			}
		}
		net.AddNode(r.Node())
		built.Receivers = append(built.Receivers, r)
	}

	for i := 0; i < nGenerators; i++ {
		genID := fabric.NodeID(20000 + i)
		swName := placer.Lookup(strconv.Itoa(i))
		sw := switches[swName]

		flows := make([]fabric.Flow, nReceivers)
		for j := 0; j < nReceivers; j++ {
			flow, err := fabric.NewFlow([]fabric.NodeID{genID, sw.ID, receiverIDs[j]}, capacity)
			if err != nil {
				return nil, err
			}
			flows[j] = flow
		}
		g := trafficgen.NewGenerator(genID, sw.ID, flows, fabric.Tick(fabric.FrameSize), rng)
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
