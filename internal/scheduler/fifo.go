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
	"container/list"
	"fmt"
	"math/rand"
	"sort"

	"switchsched/internal/fabric"
	"switchsched/internal/telemetry"
)

// fifoQueue is the FIFO at one input port, keyed by arrived-from alone —
// unlike VOQTag, it is NOT split by next hop. FIFOScheduler always matches
// strictly head-of-line.
type fifoQueue struct {
	queue *list.List // of fabric.Message
}

func newFIFOQueue() *fifoQueue { return &fifoQueue{queue: list.New()} }

func (q *fifoQueue) push(msg fabric.Message) { q.queue.PushBack(msg) }

func (q *fifoQueue) peek() (fabric.Message, bool) {
	front := q.queue.Front()
	if front == nil {
		return fabric.Message{}, false
	}
	return front.Value.(fabric.Message), true
}

func (q *fifoQueue) pop() (fabric.Message, bool) {
	front := q.queue.Front()
	if front == nil {
		return fabric.Message{}, false
	}
	q.queue.Remove(front)
	return front.Value.(fabric.Message), true
}

// FIFOScheduler is the plain greedy-random baseline: one round, head-of-
// line only, no VOQ splitting by next hop.
type FIFOScheduler struct {
	rng       *rand.Rand
	queues    map[fabric.NodeID]map[fabric.NodeID]*fifoQueue // switch -> from -> queue
	decisions map[fabric.NodeID]*fabric.Decision
}

// NewFIFOScheduler constructs a FIFOScheduler drawing its grant choices
// from rng.
func NewFIFOScheduler(rng *rand.Rand) *FIFOScheduler {
	return &FIFOScheduler{
		rng:       rng,
		queues:    make(map[fabric.NodeID]map[fabric.NodeID]*fifoQueue),
		decisions: make(map[fabric.NodeID]*fabric.Decision),
	}
}

func (s *FIFOScheduler) RegisterSwitch(id fabric.NodeID) {
	if _, ok := s.queues[id]; ok {
		return
	}
	s.queues[id] = make(map[fabric.NodeID]*fifoQueue)
	s.decisions[id] = fabric.NewDecision()
}

func (s *FIFOScheduler) Decision(id fabric.NodeID) (*fabric.Decision, error) {
	d, ok := s.decisions[id]
	if !ok {
		return nil, fmt.Errorf("%w: switch %d", ErrUnregistered, id)
	}
	return d, nil
}

func (s *FIFOScheduler) AddMessageToSchedule(id fabric.NodeID, from fabric.NodeID, msg fabric.Message) error {
	byFrom, ok := s.queues[id]
	if !ok {
		return fmt.Errorf("%w: switch %d", ErrUnregistered, id)
	}
	q, ok := byFrom[from]
	if !ok {
		q = newFIFOQueue()
		byFrom[from] = q
	}
	q.push(msg)
	return nil
}

// ScheduleNode: for each input with a non-empty queue, the request is
// out = next-hop(head(queue)). Requests are partitioned by out; each idle
// out with >=1 request grants to one requesting input uniformly at random.
func (s *FIFOScheduler) ScheduleNode(t fabric.Tick, id fabric.NodeID, node *fabric.Node) error {
	byFrom, ok := s.queues[id]
	if !ok {
		return fmt.Errorf("%w: switch %d", ErrUnregistered, id)
	}
	d := s.decisions[id]
	idle := node.IdleOutputs()

	insWithHeads := make([]fabric.NodeID, 0, len(byFrom))
	for in := range byFrom {
		insWithHeads = append(insWithHeads, in)
	}
	sort.Slice(insWithHeads, func(i, j int) bool { return insWithHeads[i] < insWithHeads[j] })

	requestsByOut := make(map[fabric.NodeID][]fabric.NodeID)
	headByIn := make(map[fabric.NodeID]fabric.Message)
	for _, in := range insWithHeads {
		msg, ok := byFrom[in].peek()
		if !ok {
			continue
		}
		out, err := d.NextHop(msg)
		if err != nil {
			return err
		}
		if _, isIdle := idle[out]; !isIdle {
			continue
		}
		requestsByOut[out] = append(requestsByOut[out], in)
		headByIn[in] = msg
	}
	outsRequested := make([]fabric.NodeID, 0, len(requestsByOut))
	for out := range requestsByOut {
		outsRequested = append(outsRequested, out)
	}
	sort.Slice(outsRequested, func(i, j int) bool { return outsRequested[i] < outsRequested[j] })

	matchedIn := make(map[fabric.NodeID]fabric.NodeID, len(requestsByOut)) // in -> out
	matchedOrder := make([]fabric.NodeID, 0, len(requestsByOut))
	for _, out := range outsRequested {
		ins := requestsByOut[out]
		winner := ins[s.rng.Intn(len(ins))]
		matchedIn[winner] = out
		matchedOrder = append(matchedOrder, winner)
	}

	for _, in := range matchedOrder {
		out := matchedIn[in]
		q := byFrom[in]
		msg, ok := q.pop()
		if !ok {
			return fmt.Errorf("%w: FIFO grant for input %d at switch %d had no head message", fabric.ErrInvariant, in, id)
		}
		if q.queue.Len() == 0 {
			delete(byFrom, in)
		}
		if msg != headByIn[in] {
			return fmt.Errorf("%w: FIFO head changed between request and grant at switch %d", fabric.ErrInvariant, id)
		}
		if err := node.TransmitToNode(t, out, msg); err != nil {
			return err
		}
	}
	telemetry.RecordMatchingRounds(1)
	return nil
}
