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

// Package wrandom provides a weighted multiset: a keyed collection that
// supports O(k) weighted random selection, where k is the number of distinct
// keys currently held. It backs the per-switch decision structure
// (reserved-capacity weighted picks, including the restricted picks made by
// Statistical Matching) and the traffic generators' per-frame flow buckets.
package wrandom

import (
	"errors"
	"math/rand"
)

// ErrEmpty is returned by PickRandom when the set holds no entries.
var ErrEmpty = errors.New("wrandom: set is empty")

// ErrZeroWeight is returned by PickRandom when every entry's weight is zero
// (total weight is zero), so no entry can be selected.
var ErrZeroWeight = errors.New("wrandom: total weight is zero")

// ErrNegativeWeight is returned by Add when w is negative.
var ErrNegativeWeight = errors.New("wrandom: weight must be non-negative")

// Set is a weighted multiset over a comparable key type K. Iteration order
// is insertion order, except that Remove moves the last key into the
// removed key's slot; either way it depends only on the sequence of calls,
// which keeps PickRandom's walk deterministic given a seeded RNG.
type Set[K comparable] struct {
	order []K
	index map[K]int     // key -> position in order
	w     map[K]float64 // key -> weight
	total float64
}

// New returns an empty weighted set.
func New[K comparable]() *Set[K] {
	return &Set[K]{
		index: make(map[K]int),
		w:     make(map[K]float64),
	}
}

// Len reports the number of distinct keys currently held.
func (s *Set[K]) Len() int { return len(s.order) }

// TotalWeight returns the exact sum of current individual weights.
func (s *Set[K]) TotalWeight() float64 { return s.total }

// Weight returns the current weight of k, or 0 if absent.
func (s *Set[K]) Weight(k K) float64 { return s.w[k] }

// Add inserts k with weight w, or replaces k's existing weight if already
// present. Negative weights are rejected.
func (s *Set[K]) Add(k K, w float64) error {
	if w < 0 {
		return ErrNegativeWeight
	}
	if old, ok := s.w[k]; ok {
		s.total += w - old
		s.w[k] = w
		return nil
	}
	s.index[k] = len(s.order)
	s.order = append(s.order, k)
	s.w[k] = w
	s.total += w
	return nil
}

// Remove deletes k, if present. Removing an absent key is a no-op — mirrors
// the "no empty shells" discipline: callers that track a key only while its
// weight is positive simply stop tracking it.
func (s *Set[K]) Remove(k K) {
	i, ok := s.index[k]
	if !ok {
		return
	}
	s.total -= s.w[k]
	delete(s.w, k)
	delete(s.index, k)

	last := len(s.order) - 1
	if i != last {
		moved := s.order[last]
		s.order[i] = moved
		s.index[moved] = i
	}
	s.order = s.order[:last]
}

// Retain keeps only the keys present in subset, removing everything else.
func (s *Set[K]) Retain(subset map[K]struct{}) {
	for _, k := range append([]K(nil), s.order...) {
		if _, ok := subset[k]; !ok {
			s.Remove(k)
		}
	}
}

// Keys returns the currently-held keys in iteration order. The returned
// slice is a fresh copy safe for the caller to mutate or retain.
func (s *Set[K]) Keys() []K {
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}

// PickRandom draws a key with probability proportional to its weight.
// It consumes exactly one draw from rng and uses the closed-upper
// convention: u = (1-r) x total, r in [0,1) from rng.Float64(), so u ranges
// over (0, total]. It then walks keys accumulating weight until the running
// sum covers u.
func (s *Set[K]) PickRandom(rng *rand.Rand) (K, error) {
	var zero K
	if len(s.order) == 0 {
		return zero, ErrEmpty
	}
	if s.total <= 0 {
		return zero, ErrZeroWeight
	}
	u := (1 - rng.Float64()) * s.total
	var acc float64
	for _, k := range s.order {
		acc += s.w[k]
		if acc >= u {
			return k, nil
		}
	}
	// floating point slop: return the last key rather than fail.
	return s.order[len(s.order)-1], nil
}
