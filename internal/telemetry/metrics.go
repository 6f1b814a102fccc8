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

// Package telemetry exposes Prometheus metrics for a running simulation:
// message throughput, matching rounds, and queue depth. Recording is cheap
// (label-vector lookup plus an atomic add) so the scheduler and traffic
// generation packages call it directly rather than routing through an
// event bus.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchsim_messages_delivered_total",
		Help: "Total messages delivered to a receiver, labeled by scheduler policy",
	}, []string{"policy"})

	messagesGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "switchsim_messages_generated_total",
		Help: "Total messages emitted by generators, labeled by scheduler policy",
	}, []string{"policy"})

	matchingRoundsPerTick = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "switchsim_matching_rounds_per_tick",
		Help:    "Number of PIM/Statistical rounds consumed per schedule-node call",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 12, 16},
	})

	messageAgeTicks = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "switchsim_message_age_ticks",
		Help:    "Ticks elapsed between message creation and delivery",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	voqDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "switchsim_voq_depth",
		Help: "Current VOQ length, labeled by switch id",
	}, []string{"switch"})
)

func init() {
	prometheus.MustRegister(messagesDeliveredTotal, messagesGeneratedTotal, matchingRoundsPerTick, messageAgeTicks, voqDepth)
}

// RecordDelivery increments the delivered-message counter for policy.
func RecordDelivery(policy string) {
	messagesDeliveredTotal.WithLabelValues(policy).Inc()
}

// RecordGeneration increments the generated-message counter for policy.
func RecordGeneration(policy string) {
	messagesGeneratedTotal.WithLabelValues(policy).Inc()
}

// RecordMatchingRounds observes how many rounds a single schedule-node call
// consumed (1 for FIFO, up to MAX-ROUNDS for PIM/Statistical).
func RecordMatchingRounds(rounds int) {
	matchingRoundsPerTick.Observe(float64(rounds))
}

// RecordMessageAge observes a delivered message's age in ticks.
func RecordMessageAge(ageTicks int64) {
	messageAgeTicks.Observe(float64(ageTicks))
}

// SetVOQDepth records the current queue length at a switch, identified by
// its string id (a switch's NodeID formatted by the caller).
func SetVOQDepth(switchID string, depth int) {
	voqDepth.WithLabelValues(switchID).Set(float64(depth))
}
