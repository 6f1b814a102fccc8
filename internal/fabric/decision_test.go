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
	"errors"
	"math/rand"
	"testing"
)

func TestNextHopUndefinedIsRoutingError(t *testing.T) {
	d := NewDecision()
	_, err := d.NextHop(Message{Source: 1, Destination: 2})
	if !errors.Is(err, ErrRouting) {
		t.Fatalf("want ErrRouting, got %v", err)
	}
}

func TestNextHopRoundTrip(t *testing.T) {
	d := NewDecision()
	d.PutDecision(1, 2, 10)
	hop, err := d.NextHop(Message{Source: 1, Destination: 2})
	if err != nil || hop != 10 {
		t.Fatalf("want hop 10, got %d err=%v", hop, err)
	}
	d.RemoveDecision(1, 2)
	if _, err := d.NextHop(Message{Source: 1, Destination: 2}); !errors.Is(err, ErrRouting) {
		t.Fatalf("want ErrRouting after removal, got %v", err)
	}
}

func TestReservedCapacityZeroRemovesEntry(t *testing.T) {
	d := NewDecision()
	io := InOut{In: 1, Out: 2}
	if err := d.SetReservedCapacity(io, 5); err != nil {
		t.Fatal(err)
	}
	if d.ReservedCapacity(io) != 5 {
		t.Fatalf("want 5, got %d", d.ReservedCapacity(io))
	}
	if err := d.SetReservedCapacity(io, 0); err != nil {
		t.Fatal(err)
	}
	if d.ReservedCapacity(io) != 0 {
		t.Fatalf("want 0 after zeroing, got %d", d.ReservedCapacity(io))
	}
	if _, ok := d.PickRandomInput(2, rand.New(rand.NewSource(1))); ok {
		t.Fatal("expected no candidate input once reserved capacity is zeroed")
	}
}

func TestTranslateReservedCapacityRoundTrip(t *testing.T) {
	d := NewDecision()
	io := InOut{In: 1, Out: 2}
	if err := d.TranslateReservedCapacity(io, 3); err != nil {
		t.Fatal(err)
	}
	if err := d.TranslateReservedCapacity(io, 4); err != nil {
		t.Fatal(err)
	}
	if d.ReservedCapacity(io) != 7 {
		t.Fatalf("want 7, got %d", d.ReservedCapacity(io))
	}
	if err := d.TranslateReservedCapacity(io, -7); err != nil {
		t.Fatal(err)
	}
	if d.ReservedCapacity(io) != 0 {
		t.Fatalf("want 0, got %d", d.ReservedCapacity(io))
	}
	if err := d.TranslateReservedCapacity(io, -1); !errors.Is(err, ErrInvariant) {
		t.Fatalf("want ErrInvariant going negative, got %v", err)
	}
}

func TestPickRandomInputWeighted(t *testing.T) {
	d := NewDecision()
	d.SetReservedCapacity(InOut{In: 1, Out: 9}, 1)
	d.SetReservedCapacity(InOut{In: 2, Out: 9}, 9)

	rng := rand.New(rand.NewSource(3))
	counts := map[NodeID]int{}
	for i := 0; i < 10000; i++ {
		in, ok := d.PickRandomInput(9, rng)
		if !ok {
			t.Fatal("expected a candidate")
		}
		counts[in]++
	}
	if frac := float64(counts[2]) / 10000; frac < 0.8 {
		t.Fatalf("expected input 2 (weight 9) to dominate, got fraction %v", frac)
	}
}

func TestPickRandomInputRestricted(t *testing.T) {
	d := NewDecision()
	d.SetReservedCapacity(InOut{In: 1, Out: 9}, 5)
	d.SetReservedCapacity(InOut{In: 2, Out: 9}, 5)

	rng := rand.New(rand.NewSource(4))
	restrict := map[InOut]struct{}{{In: 1, Out: 9}: {}}
	for i := 0; i < 50; i++ {
		in, ok := d.PickRandomInputRestricted(9, rng, restrict)
		if !ok {
			t.Fatal("expected a candidate from the restricted set")
		}
		if in != 1 {
			t.Fatalf("restricted pick must only ever return input 1, got %d", in)
		}
	}

	if _, ok := d.PickRandomInputRestricted(9, rng, map[InOut]struct{}{}); ok {
		t.Fatal("empty restriction set must yield no candidate")
	}
}
