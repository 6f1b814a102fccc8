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
	"math/rand"

	"switchsched/pkg/wrandom"
)

// srcDst is the key of the next-hop table: (originating source, final
// destination) of a message as observed at one switch.
type srcDst struct {
	Source      NodeID
	Destination NodeID
}

// InOut identifies a switch's (input port, output port) pair — the input
// is the upstream neighbor a message arrived from, the output is the next
// hop chosen for it.
type InOut struct {
	In  NodeID
	Out NodeID
}

// Decision is the per-switch decision structure: a next-hop table plus a
// reserved-capacity table, keyed by (input, output) pairs.
type Decision struct {
	nextHop  map[srcDst]NodeID
	reserved map[InOut]int

	// byOut mirrors reserved, grouped by output port, for the weighted
	// random picks used by Statistical Matching. It is the *only*
	// secondary structure: it is kept exactly in sync with reserved by
	// every mutation below, never recomputed independently.
	byOut *wrandom.MultiMap[NodeID, NodeID]
}

// NewDecision returns an empty decision structure.
func NewDecision() *Decision {
	return &Decision{
		nextHop:  make(map[srcDst]NodeID),
		reserved: make(map[InOut]int),
		byOut:    wrandom.NewMultiMap[NodeID, NodeID](),
	}
}

// PutDecision installs next-hop for (source, destination).
func (d *Decision) PutDecision(source, destination, nextHop NodeID) {
	d.nextHop[srcDst{source, destination}] = nextHop
}

// RemoveDecision deletes the next-hop entry for (source, destination), if
// present.
func (d *Decision) RemoveDecision(source, destination NodeID) {
	delete(d.nextHop, srcDst{source, destination})
}

// NextHop looks up the next hop for a message arriving at this switch.
// Fails (ErrRouting) if undefined: routing misconfiguration is always fatal
// at the switch.
func (d *Decision) NextHop(msg Message) (NodeID, error) {
	hop, ok := d.nextHop[srcDst{msg.Source, msg.Destination}]
	if !ok {
		return 0, fmt.Errorf("%w: no next-hop for %s", ErrRouting, msg)
	}
	return hop, nil
}

// ReservedCapacity returns the current reserved capacity for (in, out), or 0
// if unset.
func (d *Decision) ReservedCapacity(io InOut) int { return d.reserved[io] }

// SetReservedCapacity sets the reserved capacity for (in, out) to n. n must
// be >= 0; n == 0 deletes the entry.
func (d *Decision) SetReservedCapacity(io InOut, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: reserved capacity must be non-negative, got %d", ErrConstruction, n)
	}
	d.setReserved(io, n)
	return nil
}

// TranslateReservedCapacity adds delta to the reserved capacity of (in,
// out). The result must stay >= 0. Reaching exactly 0 deletes the entry.
func (d *Decision) TranslateReservedCapacity(io InOut, delta int) error {
	next := d.reserved[io] + delta
	if next < 0 {
		return fmt.Errorf("%w: reserved capacity for %v would go negative (delta=%d)", ErrInvariant, io, delta)
	}
	d.setReserved(io, next)
	return nil
}

func (d *Decision) setReserved(io InOut, n int) {
	if n == 0 {
		if _, ok := d.reserved[io]; ok {
			delete(d.reserved, io)
			d.byOut.Remove(io.Out, io.In)
		}
		return
	}
	d.reserved[io] = n
	_ = d.byOut.Add(io.Out, io.In, float64(n))
}

// PickRandomInput returns an input terminal with probability proportional to
// reserved-capacity[(in, out)], or (0, false) if no flow uses out.
func (d *Decision) PickRandomInput(out NodeID, rng *rand.Rand) (NodeID, bool) {
	in, err := d.byOut.PickRandom(out, rng)
	if err != nil {
		return 0, false
	}
	return in, true
}

// PickRandomInputRestricted is PickRandomInput, but the weighted set is
// first intersected with restrictTo (candidate (in, out) pairs that
// currently have waiting messages) before drawing. Returns (0, false) if
// the intersection is empty.
func (d *Decision) PickRandomInputRestricted(out NodeID, rng *rand.Rand, restrictTo map[InOut]struct{}) (NodeID, bool) {
	full := d.byOut.Get(out)
	if full == nil {
		return 0, false
	}
	restricted := wrandom.New[NodeID]()
	for _, in := range full.Keys() {
		if _, ok := restrictTo[InOut{In: in, Out: out}]; ok {
			_ = restricted.Add(in, full.Weight(in))
		}
	}
	in, err := restricted.PickRandom(rng)
	if err != nil {
		return 0, false
	}
	return in, true
}
