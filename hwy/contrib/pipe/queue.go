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

package pipe

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-tiling/hwy"
)

// ErrAborted is the panic value of Alloc and Dequeue on an aborted queue.
var ErrAborted = errors.New("pipe: queue aborted")

// SlotState is the ownership state of one queue slot.
type SlotState int32

const (
	// SlotFree slots are owned by the queue and may be allocated.
	SlotFree SlotState = iota
	// SlotAllocated slots are owned by the producer, which is filling them.
	SlotAllocated
	// SlotEnqueued slots have been released by the producer and wait for
	// the consumer.
	SlotEnqueued
	// SlotDequeued slots are owned by the consumer, which is reading them.
	SlotDequeued
)

func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotAllocated:
		return "allocated"
	case SlotEnqueued:
		return "enqueued"
	case SlotDequeued:
		return "dequeued"
	default:
		return fmt.Sprintf("SlotState(%d)", int32(s))
	}
}

// Slot is a queue buffer handed out by Alloc or Dequeue. Data has the
// queue's slot length; callers use a prefix of it.
type Slot[T any] struct {
	Data []T
	idx  int
}

// Queue is a bounded staging queue with one or two reusable slots.
//
// Each slot cycles Free -> Allocated (Alloc) -> Enqueued (Enqueue) ->
// Dequeued (Dequeue) -> Free (Free). One producer and one consumer may use
// the queue concurrently. With two slots the producer can fill the next slot
// while the consumer still holds the previous one; with one slot every
// stage waits for the other. Alloc and Dequeue block until a slot is
// available or the queue is aborted; any transition from the wrong state
// panics.
type Queue[T any] struct {
	slots  [][]T
	states []atomic.Int32
	free   chan int
	ready  chan int

	abort     chan struct{}
	abortOnce sync.Once
}

// InitQueue reserves a queue of depth slots of elems elements each from p.
// depth must be 1 or 2.
func InitQueue[T hwy.Storage](p *Pipe, depth, elems int) *Queue[T] {
	if depth != 1 && depth != 2 {
		panic(fmt.Sprintf("pipe: queue depth must be 1 or 2, got %d", depth))
	}
	p.reserve(depth*elems*hwy.SizeOf[T](), "queue")

	q := &Queue[T]{
		slots:  make([][]T, depth),
		states: make([]atomic.Int32, depth),
		free:   make(chan int, depth),
		ready:  make(chan int, depth),
		abort:  make(chan struct{}),
	}
	for i := range depth {
		q.slots[i] = make([]T, elems)
		q.free <- i
	}
	return q
}

// Depth returns the number of slots.
func (q *Queue[T]) Depth() int { return len(q.slots) }

// State returns the current state of slot i.
func (q *Queue[T]) State(i int) SlotState { return SlotState(q.states[i].Load()) }

func (q *Queue[T]) transition(idx int, from, to SlotState) {
	if !q.states[idx].CompareAndSwap(int32(from), int32(to)) {
		panic(fmt.Sprintf("pipe: slot %d is %s, cannot move from %s to %s", idx, q.State(idx), from, to))
	}
}

// Alloc blocks until a slot is free and hands it to the producer.
func (q *Queue[T]) Alloc() Slot[T] {
	var idx int
	select {
	case idx = <-q.free:
	case <-q.abort:
		panic(ErrAborted)
	}
	q.transition(idx, SlotFree, SlotAllocated)
	return Slot[T]{Data: q.slots[idx], idx: idx}
}

// Enqueue releases an allocated slot to the consumer.
func (q *Queue[T]) Enqueue(s Slot[T]) {
	q.transition(s.idx, SlotAllocated, SlotEnqueued)
	q.ready <- s.idx
}

// Dequeue blocks until a slot is enqueued and hands it to the consumer.
// Slots are dequeued in the order they were enqueued.
func (q *Queue[T]) Dequeue() Slot[T] {
	var idx int
	select {
	case idx = <-q.ready:
	case <-q.abort:
		panic(ErrAborted)
	}
	q.transition(idx, SlotEnqueued, SlotDequeued)
	return Slot[T]{Data: q.slots[idx], idx: idx}
}

// Free returns a dequeued slot to the queue.
func (q *Queue[T]) Free(s Slot[T]) {
	q.transition(s.idx, SlotDequeued, SlotFree)
	q.free <- s.idx
}

// Abort releases every stage blocked in Alloc or Dequeue with an ErrAborted
// panic, as are all later calls. A lane aborts its queues when one of its
// stages fails so the other stages do not wait forever.
func (q *Queue[T]) Abort() {
	q.abortOnce.Do(func() { close(q.abort) })
}

// InitBuf reserves a scratch buffer of elems elements from p. Scratch
// buffers belong to a single stage and never pass through a queue.
func InitBuf[T hwy.Storage](p *Pipe, elems int) []T {
	p.reserve(elems*hwy.SizeOf[T](), "buffer")
	return make([]T, elems)
}
