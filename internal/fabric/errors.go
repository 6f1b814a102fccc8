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

// Package fabric provides the per-node message substrate (arrival/outbound
// queues, idle-port tracking, the four-phase tick) and the per-switch
// decision structure (next-hop table and reserved-capacity table) that the
// scheduler and matching policies build on.
package fabric

import "errors"

// Sentinel error kinds. Every one is fatal at the point of occurrence: the
// simulator is either internally consistent or it has a bug in construction
// or in a matching policy. There is no local recovery.
var (
	// ErrConstruction covers null source/sink, empty flow sequences,
	// non-positive capacity, and non-dividing transmission rates.
	ErrConstruction = errors.New("fabric: construction error")

	// ErrRouting covers an undefined next-hop lookup, or a switch receiving
	// a message whose destination is the switch itself.
	ErrRouting = errors.New("fabric: routing error")

	// ErrLinkContention covers TransmitToNode called when the output link
	// is busy or the output port is not idle.
	ErrLinkContention = errors.New("fabric: link contention error")

	// ErrSchedulingViolation covers a policy returning a matching with
	// duplicate input or duplicate output coordinates.
	ErrSchedulingViolation = errors.New("fabric: scheduling violation")

	// ErrInvariant covers popping an empty VOQ, or any other violation of a
	// structural invariant (e.g. the "no empty shells" rule).
	ErrInvariant = errors.New("fabric: invariant violation")
)
