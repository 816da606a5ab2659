// Copyright 2025 go-highway Authors
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

package workpool

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	want := 4
	if max := runtime.NumCPU(); want > max {
		want = max
	}
	if pool.NumWorkers() != want {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), want)
	}
}

func TestNewDefaultClampedToHardware(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	want := 8
	if max := runtime.NumCPU(); want > max {
		want = max
	}
	if pool.NumWorkers() != want {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), want)
	}
}

func TestParallelForAllTasksRunExactlyOnce(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	n := 1000
	var counts [1000]atomic.Int32
	pool.ParallelFor(n, nil, func(i int, _ any) {
		counts[i].Add(1)
	})

	for i, c := range counts {
		if c.Load() != 1 {
			t.Errorf("counts[%d] = %d, want 1", i, c.Load())
		}
	}
}

func TestParallelForZeroN(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	called := false
	pool.ParallelFor(0, nil, func(i int, _ any) {
		called = true
	})
	if called {
		t.Error("ParallelFor with n=0 should not call fn")
	}
}

// TestParallelForManyJobs mirrors the parallel-pool scenario: 16 enqueued
// jobs of 1000 tasks each on a pool asked for 8 workers (fewer on a host
// with fewer CPUs), run sequentially from one caller
// goroutine. Every task across every job executes exactly once, and each
// call returns only after its own job fully drains.
func TestParallelForManyJobs(t *testing.T) {
	pool := New(8)
	defer pool.Close()

	const jobs = 16
	const tasksPerJob = 1000
	for j := 0; j < jobs; j++ {
		var count atomic.Int32
		pool.ParallelFor(tasksPerJob, nil, func(i int, _ any) {
			count.Add(1)
		})
		if got := count.Load(); got != tasksPerJob {
			t.Fatalf("job %d: count = %d, want %d", j, got, tasksPerJob)
		}
	}
}

func TestParallelForClosurePassedThrough(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	type payload struct{ tag string }
	p := &payload{tag: "hello"}

	var seen atomic.Int32
	pool.ParallelFor(10, p, func(i int, closure any) {
		if closure.(*payload).tag == "hello" {
			seen.Add(1)
		}
	})
	if seen.Load() != 10 {
		t.Errorf("seen = %d, want 10", seen.Load())
	}
}

func TestCloseMultipleTimesIsSafe(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close()
}

// TestParallelForOverflowPanics exercises (R1) directly on a Pool with no
// workers running, so the fatal-overflow panic fires synchronously in the
// calling goroutine rather than inside a worker.
func TestParallelForOverflowPanics(t *testing.T) {
	p := &Pool{numWorkers: 1, count: MaxJobs}
	defer func() {
		if recover() == nil {
			t.Error("expected panic on job queue overflow")
		}
	}()
	p.ParallelFor(1, nil, func(i int, _ any) {})
}
