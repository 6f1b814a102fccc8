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

// Package linktransport implements the thin point-to-point link abstraction:
// a scheduled transfer with a fixed transmission rate and arrival-time
// bookkeeping.
package linktransport

import (
	"errors"
	"fmt"

	"switchsched/internal/fabric"
)

// ErrConstruction wraps fabric.ErrConstruction for link-level construction
// failures (non-positive rate, rate not dividing the frame size), so
// errors.Is matches either sentinel.
var ErrConstruction = fmt.Errorf("linktransport: %w", fabric.ErrConstruction)

// ErrBusy is returned by Transmit when the link is already carrying a
// message.
var ErrBusy = errors.New("linktransport: link busy")

// Link is a scheduled point-to-point transfer from Source to Sink with a
// fixed TransmissionRate (ticks per message). TransmissionRate must divide
// fabric.FrameSize.
type Link struct {
	Source fabric.NodeID
	Sink   fabric.NodeID
	Rate   fabric.Tick

	busyUntil fabric.Tick // 0 means idle
	inFlight  bool
}

// New constructs a Link. rate must be positive and must divide
// fabric.FrameSize.
func New(source, sink fabric.NodeID, rate fabric.Tick) (*Link, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: transmission rate must be positive, got %d", ErrConstruction, rate)
	}
	if fabric.FrameSize%int(rate) != 0 {
		return nil, fmt.Errorf("%w: transmission rate %d does not divide frame size %d", ErrConstruction, rate, fabric.FrameSize)
	}
	return &Link{Source: source, Sink: sink, Rate: rate}, nil
}

// CanTransmit reports whether the link is free to begin a new transmission
// at tick t (no message is currently occupying it).
func (l *Link) CanTransmit(t fabric.Tick) bool {
	if !l.inFlight {
		return true
	}
	return t >= l.busyUntil
}

// Transmit begins transmitting a message at tick t. It returns the
// completion tick (t + Rate). Fails with ErrBusy if the link cannot
// transmit at t.
func (l *Link) Transmit(t fabric.Tick) (completionTick fabric.Tick, err error) {
	if !l.CanTransmit(t) {
		return 0, fmt.Errorf("%w: link %d->%d busy until %d (requested at %d)", ErrBusy, l.Source, l.Sink, l.busyUntil, t)
	}
	l.inFlight = true
	l.busyUntil = t + l.Rate
	return l.busyUntil, nil
}

// Release marks the link as free again. Called once the completion tick has
// been observed by the node substrate's idle-port refresh.
func (l *Link) Release() {
	l.inFlight = false
	l.busyUntil = 0
}
