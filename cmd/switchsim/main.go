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

// switchsim drives a crossbar switch-scheduling simulation end to end:
// pick a scheduler (fifo, pim, statistical), a network pattern (uniform,
// privileged, partitioned), and a trial length, then report per-frame
// delivery stats while exposing Prometheus metrics at /metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"switchsched/internal/fabric"
	"switchsched/internal/network"
	"switchsched/internal/scheduler"
	"switchsched/internal/statsink"
)

func main() {
	schedulerName := flag.String("scheduler", "pim", "fifo|pim|statistical")
	pattern := flag.String("pattern", "uniform", "uniform|privileged|partitioned")
	n := flag.Int("n", 8, "generators/receivers per switch (uniform/privileged), or receiver count (partitioned)")
	switches := flag.Int("switches", 4, "switch count for the partitioned pattern")
	frames := flag.Int("frames", 10, "frames to run")
	linkRate := flag.Int64("link_rate", 1, "ticks per link transmission")
	maxRounds := flag.Int("pim_max_rounds", fabric.PIMRounds, "PIM MAX-ROUNDS; 0 means run to maximal")
	statRounds := flag.Int("stat_rounds", fabric.StatRounds, "statistical-matching grant rounds before PIM cleanup")
	statCleanupRounds := flag.Int("stat_cleanup_rounds", fabric.StatPIMRounds, "PIM cleanup rounds after statistical matching")
	seed := flag.Int64("seed", 1, "PRNG seed")
	metricsAddr := flag.String("metrics", ":9090", "Prometheus /metrics listen address")
	sinkKind := flag.String("sink", "console", "console|file|redis")
	sinkPath := flag.String("sink_path", "frames.jsonl", "output path for the file sink")
	redisAddr := flag.String("redis_addr", "127.0.0.1:6379", "Redis address for the redis sink")
	redisKey := flag.String("redis_key", "switchsim:frames", "Redis list key for the redis sink")
	flag.Parse()

	if *frames <= 0 {
		*frames = 10
	}
	if *linkRate <= 0 {
		*linkRate = 1
	}

	rng := rand.New(rand.NewSource(*seed))
	var sched scheduler.Scheduler
	switch *schedulerName {
	case "fifo":
		sched = scheduler.NewFIFOScheduler(rng)
	case "pim":
		sched = scheduler.NewParallelScheduler(rng, *maxRounds)
	case "statistical":
		sched = scheduler.NewStatisticalScheduler(rng, *statRounds, *statCleanupRounds)
	default:
		log.Fatalf("unknown -scheduler %q: want fifo, pim, or statistical", *schedulerName)
	}

	var built *network.Built
	var err error
	switch *pattern {
	case "uniform":
		built, err = network.NewUniformNetwork(*n, sched, rng, fabric.Tick(*linkRate))
	case "privileged":
		built, err = network.NewPrivilegedNetwork(*n, sched, rng, fabric.Tick(*linkRate))
	case "partitioned":
		built, err = network.NewPartitionedNetwork(*n*(*switches), *n, *switches, sched, rng, fabric.Tick(*linkRate))
	default:
		log.Fatalf("unknown -pattern %q: want uniform, privileged, or partitioned", *pattern)
	}
	if err != nil {
		log.Fatalf("build network: %v", err)
	}

	var sink statsink.Sink
	switch *sinkKind {
	case "console":
		sink = statsink.NewConsoleSink(os.Stdout)
	case "file":
		fileSink, err := statsink.NewFileSink(*sinkPath)
		if err != nil {
			log.Fatalf("open file sink: %v", err)
		}
		sink = fileSink
	case "redis":
		sink = statsink.NewRedisSink(context.Background(), *redisAddr, *redisKey)
	default:
		log.Fatalf("unknown -sink %q: want console, file, or redis", *sinkKind)
	}
	defer sink.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	stopped := make(chan struct{})
	go func() {
		<-sigCh
		close(stopped)
	}()

	lastDelivered, lastGenerated, lastTotalAge := 0, uint64(0), 0.0
	for frame := 0; frame < *frames; frame++ {
		select {
		case <-stopped:
			fmt.Println("interrupted, stopping early")
			return
		default:
		}
		if err := built.Net.Run(1); err != nil {
			log.Fatalf("frame %d: %v", frame, err)
		}
		delivered, meanAge := frameDeliveryStats(built)
		totalAge := meanAge * float64(delivered)
		frameMeanAge := 0.0
		if d := delivered - lastDelivered; d > 0 {
			frameMeanAge = (totalAge - lastTotalAge) / float64(d)
		}
		generated := frameGeneratedCount(built)
		if err := sink.OnFrame(statsink.FrameStats{
			Frame:             frame,
			Policy:            *schedulerName,
			MessagesDelivered: delivered - lastDelivered,
			MessagesGenerated: int(generated - lastGenerated),
			MeanAgeTicks:      frameMeanAge,
		}); err != nil {
			log.Printf("frame %d: sink write failed: %v", frame, err)
		}
		lastDelivered, lastGenerated, lastTotalAge = delivered, generated, totalAge
	}
}

func frameDeliveryStats(built *network.Built) (delivered int, meanAge float64) {
	var totalAge float64
	for _, r := range built.Receivers {
		arrivals := r.Arrivals()
		delivered += len(arrivals)
		totalAge += r.MeanAge() * float64(len(arrivals))
	}
	if delivered == 0 {
		return 0, 0
	}
	return delivered, totalAge / float64(delivered)
}

func frameGeneratedCount(built *network.Built) uint64 {
	var total uint64
	for _, g := range built.Generators {
		total += g.Generated()
	}
	return total
}
