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

// Package scheduler implements per-tick crossbar matching: FIFOScheduler,
// ParallelScheduler (PIM), and StatisticalScheduler all satisfy the
// Scheduler interface and can register any number of switch nodes against
// a single instance, sharing one RNG and one VOQ/decision store per switch.
package scheduler

import "errors"

// ErrUnregistered is returned when a switch operation is attempted before
// RegisterSwitch has been called for that node.
var ErrUnregistered = errors.New("scheduler: switch not registered")
