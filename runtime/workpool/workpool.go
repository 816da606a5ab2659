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

// Package workpool is the runtime's parallel-loop scheduler: a pool of N
// worker goroutines draining a bounded FIFO of jobs, each job a contiguous
// index range handed out one task at a time. It uses an explicit
// FIFO-of-jobs model so that the calling goroutine can observe a job's
// in-flight active-worker count rather than only waiting on an opaque
// WaitGroup. The caller does not run tasks of its own job; it waits for
// the pool's workers to drain it.
package workpool

import (
	"runtime"
	"sync"
)

// MaxJobs bounds the job FIFO. Enqueuing past this many concurrently
// in-flight jobs is a fatal overflow (tail would overtake head).
const MaxJobs = 256

// TaskFunc runs one task of a job. index is the task's position in
// [0, max); closure is the caller-supplied payload threaded through
// unchanged.
type TaskFunc func(index int, closure any)

// job is (fn, next, max, closure, id, active_workers) from the runtime
// model: fn runs one task, [next, max) is the remaining index range, id
// uniquely identifies the job, and active_workers counts tasks currently
// executing (not merely claimed).
type job struct {
	fn            TaskFunc
	closure       any
	next          int
	max           int
	id            int
	activeWorkers int
}

// Pool is a fixed-size worker pool draining a bounded job FIFO with a
// mutex + condition variable, per the runtime model's ordering and
// termination rules.
type Pool struct {
	mu          sync.Mutex
	notEmpty    *sync.Cond
	jobDone     *sync.Cond
	numWorkers  int
	jobs        [MaxJobs]job
	head        int
	tail        int
	count       int
	nextID      int
	closed      bool
	workersDone sync.WaitGroup
}

// New creates a pool with numWorkers workers. numWorkers <= 0 means 8.
// Any count above runtime.NumCPU() is clamped to runtime.NumCPU().
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 8
	}
	if max := runtime.NumCPU(); numWorkers > max {
		numWorkers = max
	}

	p := &Pool{numWorkers: numWorkers}
	p.notEmpty = sync.NewCond(&p.mu)
	p.jobDone = sync.NewCond(&p.mu)

	p.workersDone.Add(numWorkers)
	for range numWorkers {
		go p.worker()
	}
	return p
}

// NumWorkers reports the pool's worker count.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// worker is the persistent loop: acquire mutex; if empty, wait on the
// condition variable; else claim one task, release mutex, execute,
// reacquire to decrement active_workers. (R3): only workers block on
// notEmpty — the enqueuing/master thread never does.
func (p *Pool) worker() {
	defer p.workersDone.Done()
	for {
		p.mu.Lock()
		for p.count == 0 {
			if p.closed {
				p.mu.Unlock()
				return
			}
			p.notEmpty.Wait()
		}

		j := &p.jobs[p.head]
		if j.next >= j.max {
			// Nothing left to claim in the head job; another worker is
			// finishing it. Wait for the head to advance.
			p.mu.Unlock()
			continue
		}
		idx := j.next
		j.next++
		j.activeWorkers++
		fn, closure := j.fn, j.closure
		p.mu.Unlock()

		fn(idx, closure)

		p.mu.Lock()
		j.activeWorkers--
		if j.next >= j.max && j.activeWorkers == 0 {
			// (R2): a completed job's id resets to 0 before head advances.
			p.jobs[p.head] = job{}
			p.head = (p.head + 1) % MaxJobs
			p.count--
			p.jobDone.Broadcast()
		}
		p.mu.Unlock()
	}
}

// ParallelFor enqueues a job running fn(i, closure) for i in [0, n) and
// blocks the calling (master) goroutine until every task of that job has
// finished — observed by the job's active_workers reaching zero with the
// FIFO head past it, never by waiting on the empty-queue condition
// variable itself (R3).
func (p *Pool) ParallelFor(n int, closure any, fn TaskFunc) {
	if n <= 0 {
		return
	}

	p.mu.Lock()
	if p.count == MaxJobs {
		p.mu.Unlock()
		panic("workpool: job queue overflow, tail would overtake head")
	}
	p.nextID++
	id := p.nextID
	p.jobs[p.tail] = job{fn: fn, closure: closure, next: 0, max: n, id: id}
	myPos := p.tail
	p.tail = (p.tail + 1) % MaxJobs
	p.count++
	p.notEmpty.Broadcast()

	for p.jobStillPending(myPos, id) {
		p.jobDone.Wait()
	}
	p.mu.Unlock()
}

// jobStillPending reports whether the job originally enqueued at slot pos
// with the given id has not yet fully completed. Completion is visible
// either as the head having advanced past pos (mod MaxJobs), or — while
// pos still holds the head slot — as next==max and active_workers==0.
// Must be called with p.mu held.
func (p *Pool) jobStillPending(pos, id int) bool {
	if p.head == pos {
		j := &p.jobs[pos]
		return j.id == id && (j.next < j.max || j.activeWorkers > 0)
	}
	// The head has moved on; pos was already drained and reset to the
	// zero job (id 0), so it is done regardless of wraparound distance.
	return false
}

// Close signals all workers to exit once the queue drains and waits for
// them to terminate. Close does not wait for in-flight jobs; callers
// must ensure all ParallelFor calls have returned first.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.notEmpty.Broadcast()
	p.mu.Unlock()
	p.workersDone.Wait()
}
