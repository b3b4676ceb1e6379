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

package glu

import (
	"sync"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/pipe"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

// LaneStats counts the work one lane did during a launch. Idle lanes
// report zero values.
type LaneStats struct {
	Loops        int
	ReadCalls    int
	WriteCalls   int
	ElemsRead    int
	ElemsWritten int
	LocalBytes   int
}

// lane drives one compute lane through its static list of work items.
type lane[T hwy.Storage] struct {
	id    int
	plan  tiling.Plan
	depth int
	shape shape
	x, y  pipe.Global[T]
}

// process runs the lane to completion. CopyIn and CopyOut run on their own
// goroutines and Compute on the caller's; the staging queues order the
// three stages of every iteration. A panic in any stage aborts the queues
// and is re-raised on the caller's goroutine once all stages have stopped.
func (l *lane[T]) process() LaneStats {
	if l.id >= l.plan.RealCoreNum {
		return LaneStats{}
	}

	loops := l.shape.loops(l.id)
	inOff, inLen, outOff, outLen := l.shape.span(l.id)
	x := l.x.View(inOff, inLen)
	y := l.y.View(outOff, outLen)

	elems := l.plan.IterElems()
	ub := pipe.New(l.plan.UBSize)
	inA := pipe.InitQueue[T](ub, l.depth, elems)
	inB := pipe.InitQueue[T](ub, l.depth, elems)
	out := pipe.InitQueue[T](ub, min(l.depth, l.plan.OutDepth()), elems)
	calc := newCompute[T](ub, elems)

	stats := LaneStats{Loops: loops, LocalBytes: ub.Used()}
	var (
		wg     sync.WaitGroup
		once   sync.Once
		failed any
	)
	guard := func(stage func()) {
		defer func() {
			if r := recover(); r != nil {
				once.Do(func() { failed = r })
				inA.Abort()
				inB.Abort()
				out.Abort()
			}
		}()
		stage()
	}

	wg.Go(func() {
		guard(func() {
			for loop := range loops {
				it := l.shape.item(l.id, loop)
				cp := l.shape.inParams(it)

				a := inA.Alloc()
				stats.ElemsRead += pipe.CopyIn(a.Data, x, it.InputA-x.Offset(), cp)
				inA.Enqueue(a)

				b := inB.Alloc()
				stats.ElemsRead += pipe.CopyIn(b.Data, x, it.InputB-x.Offset(), cp)
				inB.Enqueue(b)

				stats.ReadCalls += 2
			}
		})
	})

	wg.Go(func() {
		guard(func() {
			for loop := range loops {
				it := l.shape.item(l.id, loop)
				o := out.Dequeue()
				stats.ElemsWritten += pipe.CopyOut(y, it.Output-y.Offset(), o.Data, l.shape.outParams(it))
				stats.WriteCalls++
				out.Free(o)
			}
		})
	})

	guard(func() {
		for loop := range loops {
			it := l.shape.item(l.id, loop)
			n := it.Rows * it.Pitch
			a := inA.Dequeue()
			b := inB.Dequeue()
			o := out.Alloc()
			calc.glu(o.Data[:n], a.Data[:n], b.Data[:n])
			inA.Free(a)
			inB.Free(b)
			out.Enqueue(o)
		}
	})

	wg.Wait()
	if failed != nil {
		panic(failed)
	}
	return stats
}
