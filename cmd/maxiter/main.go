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

// maxiter measures how the number of PIM rounds needed to reach a maximal
// matching grows with switch size: for each N in -sizes, it runs -trials
// independent fully-connected N x N matches and reports the mean and max
// round count.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"switchsched/internal/scheduler"
)

func main() {
	sizesStr := flag.String("sizes", "4,8,16,32,64,128,256", "comma-separated switch sizes to trial")
	trials := flag.Int("trials", 1000, "independent trials per size")
	seed := flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()

	if *trials <= 0 {
		*trials = 1000
	}

	sizes, err := parseSizes(*sizesStr)
	if err != nil {
		fmt.Println(err)
		return
	}

	rng := rand.New(rand.NewSource(*seed))
	fmt.Println("size,trials,mean_rounds,max_rounds")
	for _, n := range sizes {
		sum := 0
		max := 0
		for i := 0; i < *trials; i++ {
			rounds := scheduler.MaxIterTrial(n, rng)
			sum += rounds
			if rounds > max {
				max = rounds
			}
		}
		mean := float64(sum) / float64(*trials)
		fmt.Printf("%d,%d,%.3f,%d\n", n, *trials, mean, max)
	}
}

func parseSizes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("maxiter: invalid size %q: %w", p, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("maxiter: size must be positive, got %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}
