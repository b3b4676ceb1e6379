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

// Package pipe provides the per-lane staging machinery of a pipelined
// kernel: a fixed local memory budget, fixed-depth staging queues that let
// transfer and compute overlap, global buffer views and the strided block
// transfers between them.
//
// A lane creates one Pipe sized to its local memory and carves every queue
// and scratch buffer out of it once, before its first iteration. Nothing is
// allocated per iteration: queue slots are recycled through an explicit
// Alloc, Enqueue, Dequeue, Free cycle.
package pipe

import "fmt"

// Pipe tracks the local memory reserved by one lane.
type Pipe struct {
	capacity int
	used     int
}

// New returns a Pipe with capacity bytes of local memory.
func New(capacity int) *Pipe {
	return &Pipe{capacity: capacity}
}

// Capacity returns the local memory size in bytes.
func (p *Pipe) Capacity() int { return p.capacity }

// Used returns the bytes reserved so far.
func (p *Pipe) Used() int { return p.used }

// reserve charges n bytes against the budget. Plans are checked against
// local memory before launch, so running out here is a defect.
func (p *Pipe) reserve(n int, what string) {
	if n < 0 || p.used+n > p.capacity {
		panic(fmt.Sprintf("pipe: reserving %d bytes for %s exceeds local memory (%d of %d bytes used)",
			n, what, p.used, p.capacity))
	}
	p.used += n
}
