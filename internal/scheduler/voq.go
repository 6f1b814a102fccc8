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
	"sort"

	"switchsched/internal/fabric"
)

// voqKey is a thin rename of fabric.InOut for use as the VOQ table key: In
// is the neighbor the message arrived from, Out is the chosen next hop.
type voqKey = fabric.InOut

// voq is a single FIFO of messages waiting on one (in, out) pair.
type voq struct {
	queue *list.List // of fabric.Message
}

func newVOQ() *voq { return &voq{queue: list.New()} }

func (q *voq) push(msg fabric.Message) { q.queue.PushBack(msg) }

func (q *voq) peek() (fabric.Message, bool) {
	front := q.queue.Front()
	if front == nil {
		return fabric.Message{}, false
	}
	return front.Value.(fabric.Message), true
}

func (q *voq) pop() (fabric.Message, bool) {
	front := q.queue.Front()
	if front == nil {
		return fabric.Message{}, false
	}
	q.queue.Remove(front)
	return front.Value.(fabric.Message), true
}

func (q *voq) len() int { return q.queue.Len() }

// VOQTag is the per-switch store of Virtual Output Queues: a mapping from
// (arrived-from, next-hop) to a FIFO of messages. Unlike the router this is
// modeled after, an outer key is deleted the instant its queue drains — the
// "no empty shells" discipline: the set of VOQTag keys must always equal
// the set of non-empty queues.
type VOQTag struct {
	queues map[voqKey]*voq
}

func newVOQTag() *VOQTag {
	return &VOQTag{queues: make(map[voqKey]*voq)}
}

// Enqueue appends msg to the VOQ keyed by (from, nextHop), creating the
// queue lazily.
func (t *VOQTag) Enqueue(from fabric.NodeID, nextHop fabric.NodeID, msg fabric.Message) {
	key := voqKey{In: from, Out: nextHop}
	q, ok := t.queues[key]
	if !ok {
		q = newVOQ()
		t.queues[key] = q
	}
	q.push(msg)
}

// AvailableVOQs returns the keys of every currently non-empty queue, sorted
// by (In, Out) — callers feed this directly into matching policies that
// consume the rng in candidate order, so a fixed order here is what makes a
// seeded run reproducible.
func (t *VOQTag) AvailableVOQs() []voqKey {
	out := make([]voqKey, 0, len(t.queues))
	for k := range t.queues {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].In != out[j].In {
			return out[i].In < out[j].In
		}
		return out[i].Out < out[j].Out
	})
	return out
}

// Peek returns the head message of the VOQ at key without removing it.
func (t *VOQTag) Peek(key voqKey) (fabric.Message, bool) {
	q, ok := t.queues[key]
	if !ok {
		return fabric.Message{}, false
	}
	return q.peek()
}

// Pop removes and returns the head message of the VOQ at key, deleting the
// key entirely once the queue is empty. Fails with ErrInvariant if the key
// has no queue or the queue is already empty — popping a non-existent VOQ
// is always a bug in the caller.
func (t *VOQTag) Pop(key voqKey) (fabric.Message, error) {
	q, ok := t.queues[key]
	if !ok {
		return fabric.Message{}, fmt.Errorf("%w: pop from missing VOQ %v", fabric.ErrInvariant, key)
	}
	msg, ok := q.pop()
	if !ok {
		return fabric.Message{}, fmt.Errorf("%w: pop from empty VOQ %v", fabric.ErrInvariant, key)
	}
	if q.len() == 0 {
		delete(t.queues, key)
	}
	return msg, nil
}

// Length returns the number of messages queued at key (0 if key is absent).
func (t *VOQTag) Length(key voqKey) int {
	q, ok := t.queues[key]
	if !ok {
		return 0
	}
	return q.len()
}
