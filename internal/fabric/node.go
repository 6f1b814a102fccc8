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

package fabric

import (
	"fmt"
	"sort"
)

// Link is the capability a node needs from its point-to-point transport: can
// it begin a transmission now, start one, and release it once delivered.
// internal/linktransport.Link satisfies this without fabric importing that
// package — the dependency runs one way, transport depends on the node
// substrate's NodeID/Tick types, not the reverse.
type Link interface {
	CanTransmit(t Tick) bool
	Transmit(t Tick) (completionTick Tick, err error)
	Release()
}

// arrival is a pending incoming message, visible to the node's tick handler
// once the current tick reaches CompletionTick.
type arrival struct {
	completionTick Tick
	seq            uint64 // insertion order, breaks ties
	from           NodeID
	msg            Message
}

// outboundCompletion re-flags an output port idle once its completion tick
// has passed.
type outboundCompletion struct {
	completionTick Tick
	seq            uint64
	sink           NodeID
}

// Hooks lets the owner of a Node plug in its type-specific behavior:
// ReceiveHook fires when an arrival's destination is this node; ScheduleHook
// fires for every other arrival (typically: enqueue into a VOQ); OnTick is
// the node's own per-tick update (generators emit here); Send performs
// outbound transmission for the tick (switches defer this to their
// scheduler).
// Every hook returns an error: every error kind is fatal at the point of
// occurrence, and the owning Tick call propagates it immediately rather
// than attempting any local recovery.
type Hooks struct {
	ReceiveHook  func(t Tick, from NodeID, msg Message) error
	ScheduleHook func(t Tick, from NodeID, msg Message) error
	OnTick       func(t Tick) error
	Send         func(t Tick) error
}

// Node is the per-node message substrate: input/output link registration,
// idle-port tracking, the arrival queue, and the outbound completion queue,
// plus the four-phase Tick handler.
type Node struct {
	ID NodeID

	inLinks  map[NodeID]Link     // keyed by upstream node
	outLinks map[NodeID]Link     // keyed by downstream node
	outNodes map[NodeID]*Node    // keyed by downstream node
	idle     map[NodeID]struct{} // output ports currently idle

	arrivals   []arrival
	outbound   []outboundCompletion
	seqCounter uint64

	hooks Hooks
}

// NewNode constructs a Node with no registered links. RegisterOutLink /
// RegisterInLink must be called before the node can transmit or receive.
func NewNode(id NodeID, hooks Hooks) *Node {
	return &Node{
		ID:       id,
		inLinks:  make(map[NodeID]Link),
		outLinks: make(map[NodeID]Link),
		outNodes: make(map[NodeID]*Node),
		idle:     make(map[NodeID]struct{}),
		hooks:    hooks,
	}
}

// RegisterOutLink registers an outbound link to sink (and a reference to the
// sink node itself, so TransmitToNode can post directly to its arrival
// queue), starting idle.
func (n *Node) RegisterOutLink(sink NodeID, sinkNode *Node, l Link) {
	n.outLinks[sink] = l
	n.outNodes[sink] = sinkNode
	n.idle[sink] = struct{}{}
}

// RegisterInLink registers an inbound link from an upstream node.
func (n *Node) RegisterInLink(from NodeID, l Link) {
	n.inLinks[from] = l
}

// IdleOutputs returns the set of output ports currently able to begin a
// transmission. The returned map is a fresh copy.
func (n *Node) IdleOutputs() map[NodeID]struct{} {
	out := make(map[NodeID]struct{}, len(n.idle))
	for k := range n.idle {
		out[k] = struct{}{}
	}
	return out
}

// IsIdle reports whether out is currently an idle output port.
func (n *Node) IsIdle(out NodeID) bool {
	_, ok := n.idle[out]
	return ok
}

// Tick executes four phases, in order:
//  1. idle-port refresh
//  2. arrival drain (dispatches to ReceiveHook or ScheduleHook)
//  3. the node's own OnTick
//  4. the node's own Send
//
// It returns the first error encountered from any hook, at which point the
// remaining phases for this tick are skipped: every error kind indicates a
// bug, and the simulator halts rather than limping onward with a
// partially-drained queue.
func (n *Node) Tick(t Tick) error {
	n.refreshIdlePorts(t)
	if err := n.drainArrivals(t); err != nil {
		return err
	}
	if n.hooks.OnTick != nil {
		if err := n.hooks.OnTick(t); err != nil {
			return err
		}
	}
	if n.hooks.Send != nil {
		if err := n.hooks.Send(t); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) refreshIdlePorts(t Tick) {
	i := 0
	for ; i < len(n.outbound); i++ {
		if n.outbound[i].completionTick > t {
			break
		}
		oc := n.outbound[i]
		n.idle[oc.sink] = struct{}{}
		if l, ok := n.outLinks[oc.sink]; ok {
			l.Release()
		}
	}
	n.outbound = n.outbound[i:]
}

func (n *Node) drainArrivals(t Tick) error {
	i := 0
	for ; i < len(n.arrivals); i++ {
		if n.arrivals[i].completionTick > t {
			break
		}
		a := n.arrivals[i]
		if a.msg.Destination == n.ID {
			if n.hooks.ReceiveHook != nil {
				if err := n.hooks.ReceiveHook(t, a.from, a.msg); err != nil {
					n.arrivals = n.arrivals[i+1:]
					return err
				}
			}
		} else {
			if n.hooks.ScheduleHook != nil {
				if err := n.hooks.ScheduleHook(t, a.from, a.msg); err != nil {
					n.arrivals = n.arrivals[i+1:]
					return err
				}
			}
		}
	}
	n.arrivals = n.arrivals[i:]
	return nil
}

// TransmitToNode atomically: verifies the output link to sink exists and can
// transmit, moves sink out of the idle set, begins link transmission, and
// posts an arrival entry on sink's queue with the link's completion tick.
//
// Fails with ErrRouting if sink is not a registered output neighbor, or
// ErrLinkContention if the link is busy (or the port is not in the idle
// set).
func (n *Node) TransmitToNode(t Tick, sink NodeID, msg Message) error {
	l, ok := n.outLinks[sink]
	if !ok {
		return fmt.Errorf("%w: %d has no output link to %d", ErrRouting, n.ID, sink)
	}
	if _, idle := n.idle[sink]; !idle {
		return fmt.Errorf("%w: output port %d at node %d is not idle", ErrLinkContention, sink, n.ID)
	}
	completion, err := l.Transmit(t)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLinkContention, err)
	}
	delete(n.idle, sink)
	n.seqCounter++
	n.outbound = insertOutbound(n.outbound, outboundCompletion{
		completionTick: completion,
		seq:            n.seqCounter,
		sink:           sink,
	})
	n.outNodes[sink].postArrival(completion, n.ID, msg)
	return nil
}

// postArrival inserts an arrival entry, keeping the queue ordered by
// completion tick with ties broken by insertion order.
func (n *Node) postArrival(completionTick Tick, from NodeID, msg Message) {
	n.seqCounter++
	n.arrivals = insertArrival(n.arrivals, arrival{
		completionTick: completionTick,
		seq:            n.seqCounter,
		from:           from,
		msg:            msg,
	})
}

func insertArrival(q []arrival, a arrival) []arrival {
	i := sort.Search(len(q), func(i int) bool {
		if q[i].completionTick != a.completionTick {
			return q[i].completionTick > a.completionTick
		}
		return q[i].seq > a.seq
	})
	q = append(q, arrival{})
	copy(q[i+1:], q[i:])
	q[i] = a
	return q
}

func insertOutbound(q []outboundCompletion, oc outboundCompletion) []outboundCompletion {
	i := sort.Search(len(q), func(i int) bool {
		if q[i].completionTick != oc.completionTick {
			return q[i].completionTick > oc.completionTick
		}
		return q[i].seq > oc.seq
	})
	q = append(q, outboundCompletion{})
	copy(q[i+1:], q[i:])
	q[i] = oc
	return q
}
