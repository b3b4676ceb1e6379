// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the persistent goroutine pool that executes
// compute lanes. A Pool is created once and reused across many kernel
// launches, so launching a kernel never spawns its lane goroutines.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	// One task per lane; every lane runs to completion before Launch returns.
//	pool.Launch(plan.TotalCoreNum, func(lane int) {
//	    process(lane)
//	})
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
)

// Pool is a fixed set of worker goroutines shared by every launch.
type Pool struct {
	numWorkers int
	tasks      chan task

	// mu orders Close against the task sends of run.
	mu     sync.RWMutex
	closed bool
}

type task struct {
	lane int
	fn   func(lane int)
	done *sync.WaitGroup
}

// LanePanic is re-raised by Launch on the caller's goroutine when a lane
// panics, so the pool's workers survive defects in a single launch.
type LanePanic struct {
	Lane  int
	Value any
}

func (p LanePanic) String() string {
	return fmt.Sprintf("workerpool: lane %d panicked: %v", p.Lane, p.Value)
}

// New starts numWorkers workers, or GOMAXPROCS workers if numWorkers <= 0.
// They run until Close.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		tasks:      make(chan task, numWorkers*2),
	}
	for range numWorkers {
		go func() {
			for t := range p.tasks {
				t.fn(t.lane)
				t.done.Done()
			}
		}()
	}
	return p
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers once queued tasks finish. It is safe to call
// more than once and concurrently with Launch: launches that have started
// submitting finish on the workers, later ones run on the caller's
// goroutine.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
}

// Launch runs fn(lane) once for every lane in [0, n) and blocks until all of
// them return. Lanes never wait on each other, so n may exceed NumWorkers:
// surplus lanes queue until a worker frees up.
//
// If any lane panics, the remaining lanes still run to completion and the
// first panic is re-raised on the caller's goroutine as a LanePanic.
func (p *Pool) Launch(n int, fn func(lane int)) {
	var (
		once  sync.Once
		first *LanePanic
	)
	p.run(n, func(lane int) {
		defer func() {
			if r := recover(); r != nil {
				once.Do(func() { first = &LanePanic{Lane: lane, Value: r} })
			}
		}()
		fn(lane)
	})
	if first != nil {
		panic(*first)
	}
}

// ParallelFor splits [0, n) into at most NumWorkers contiguous ranges and
// calls fn(start, end) for each of them concurrently.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	chunk := (n + p.numWorkers - 1) / p.numWorkers
	p.run((n+chunk-1)/chunk, func(i int) {
		fn(i*chunk, min((i+1)*chunk, n))
	})
}

// run calls fn(i) for i in [0, n) on the workers and waits for all calls.
// A single call, or any call on a closed pool, runs on the caller's
// goroutine.
func (p *Pool) run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n > 1 {
		p.mu.RLock()
		if !p.closed {
			var wg sync.WaitGroup
			wg.Add(n)
			for i := range n {
				p.tasks <- task{lane: i, fn: fn, done: &wg}
			}
			p.mu.RUnlock()
			wg.Wait()
			return
		}
		p.mu.RUnlock()
	}
	for i := range n {
		fn(i)
	}
}
