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

package wrandom

import "math/rand"

// MultiMap is an outer map from an outer key K1 to a weighted Set of inner
// keys K2. An outer entry is created lazily on first Add and removed when
// its inner set becomes empty — the "no empty shells" discipline applies
// one level up as well as within each Set.
type MultiMap[K1 comparable, K2 comparable] struct {
	m map[K1]*Set[K2]
}

// NewMultiMap returns an empty outer map.
func NewMultiMap[K1 comparable, K2 comparable]() *MultiMap[K1, K2] {
	return &MultiMap[K1, K2]{m: make(map[K1]*Set[K2])}
}

// Add inserts (or updates) the weight of k2 under outer key k1, creating the
// inner set on first use.
func (m *MultiMap[K1, K2]) Add(k1 K1, k2 K2, w float64) error {
	s, ok := m.m[k1]
	if !ok {
		s = New[K2]()
		m.m[k1] = s
	}
	return s.Add(k2, w)
}

// Remove deletes k2 from under k1, and removes the outer entry entirely if
// the inner set becomes empty.
func (m *MultiMap[K1, K2]) Remove(k1 K1, k2 K2) {
	s, ok := m.m[k1]
	if !ok {
		return
	}
	s.Remove(k2)
	if s.Len() == 0 {
		delete(m.m, k1)
	}
}

// Get returns the inner set for k1, or nil if k1 has no entries.
func (m *MultiMap[K1, K2]) Get(k1 K1) *Set[K2] { return m.m[k1] }

// Has reports whether k1 currently has any entries.
func (m *MultiMap[K1, K2]) Has(k1 K1) bool {
	s, ok := m.m[k1]
	return ok && s.Len() > 0
}

// OuterKeys returns the outer keys that currently have at least one entry.
// Order is unspecified (Go map iteration order).
func (m *MultiMap[K1, K2]) OuterKeys() []K1 {
	out := make([]K1, 0, len(m.m))
	for k1 := range m.m {
		out = append(out, k1)
	}
	return out
}

// PickRandom draws an inner key under outer key k1, weighted by its stored
// weight. Returns ErrEmpty if k1 has no entries.
func (m *MultiMap[K1, K2]) PickRandom(k1 K1, rng *rand.Rand) (K2, error) {
	var zero K2
	s, ok := m.m[k1]
	if !ok {
		return zero, ErrEmpty
	}
	return s.PickRandom(rng)
}
