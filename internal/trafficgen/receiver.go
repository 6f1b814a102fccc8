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

package trafficgen

import (
	"switchsched/internal/fabric"
	"switchsched/internal/telemetry"
)

// Arrival records one message's delivery, for age and ordering statistics.
type Arrival struct {
	Msg          fabric.Message
	DeliveryTick fabric.Tick
}

// Age returns the ticks elapsed between creation and delivery.
func (a Arrival) Age() fabric.Tick { return a.DeliveryTick - a.Msg.CreationTick }

// Receiver is a terminal node: every arrival destined for it is recorded in
// order of delivery.
type Receiver struct {
	node     *fabric.Node
	arrivals []Arrival
}

// NewReceiver constructs a Receiver node with the given id.
func NewReceiver(id fabric.NodeID) *Receiver {
	r := &Receiver{}
	r.node = fabric.NewNode(id, fabric.Hooks{
		ReceiveHook: r.receive,
	})
	return r
}

// Node returns the underlying fabric.Node, for link registration.
func (r *Receiver) Node() *fabric.Node { return r.node }

func (r *Receiver) receive(t fabric.Tick, _ fabric.NodeID, msg fabric.Message) error {
	a := Arrival{Msg: msg, DeliveryTick: t}
	r.arrivals = append(r.arrivals, a)
	telemetry.RecordDelivery("all")
	telemetry.RecordMessageAge(int64(a.Age()))
	return nil
}

// Arrivals returns every message delivered so far, in delivery order.
func (r *Receiver) Arrivals() []Arrival {
	out := make([]Arrival, len(r.arrivals))
	copy(out, r.arrivals)
	return out
}

// FromSource returns arrivals whose message source matches src, preserving
// delivery order — used to check per-flow FIFO ordering and conservation.
func (r *Receiver) FromSource(src fabric.NodeID) []Arrival {
	var out []Arrival
	for _, a := range r.arrivals {
		if a.Msg.Source == src {
			out = append(out, a)
		}
	}
	return out
}

// MeanAge returns the mean delivery age across all recorded arrivals, or 0
// if none have been recorded.
func (r *Receiver) MeanAge() float64 {
	if len(r.arrivals) == 0 {
		return 0
	}
	var total fabric.Tick
	for _, a := range r.arrivals {
		total += a.Age()
	}
	return float64(total) / float64(len(r.arrivals))
}
