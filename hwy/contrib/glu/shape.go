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
	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/pipe"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

// WorkItem is one pipeline iteration of one lane, resolved to element
// offsets in the global input and output. Offsets are absolute: InputA and
// InputB address the gate and linear halves of the first row in x, Output
// the first output element in y.
//
// Rows is the number of transfer blocks, Len the elements per block and
// Pitch the local stride between blocks, padding included.
type WorkItem struct {
	Lane, Loop int

	InputA, InputB, Output int

	Rows, Len, Pitch int
}

// shape maps (lane, loop) pairs to work items and transfers. Every stage
// of a lane recomputes the item it works on; items are never stored.
type shape interface {
	// loops is the number of iterations lane runs, decided once.
	loops(lane int) int
	item(lane, loop int) WorkItem
	inParams(it WorkItem) pipe.CopyParams
	outParams(it WorkItem) pipe.CopyParams
	// span is the range of x and of y that lane may touch.
	span(lane int) (inOff, inLen, outOff, outLen int)
}

func newShape(p tiling.Plan) shape {
	switch p.Strategy {
	case tiling.Small:
		return small{p}
	case tiling.Big:
		return big{p}
	default:
		return single{p}
	}
}

// rowSpan is the span of the rows [first, first+rows).
func rowSpan(p tiling.Plan, first, rows int) (inOff, inLen, outOff, outLen int) {
	n := p.RowLen
	return first * 2 * n, rows * 2 * n, first * n, rows * n
}

// single moves one whole, aligned row per iteration.
type single struct{ p tiling.Plan }

func (s single) loops(lane int) int { return s.p.LaneUnits(lane) }

func (s single) item(lane, loop int) WorkItem {
	n := s.p.RowLen
	row := s.p.FirstRow(lane) + loop
	return WorkItem{
		Lane: lane, Loop: loop,
		InputA: row * 2 * n, InputB: row*2*n + n, Output: row * n,
		Rows: 1, Len: n, Pitch: n,
	}
}

func (s single) inParams(it WorkItem) pipe.CopyParams  { return pipe.Contiguous(it.Len) }
func (s single) outParams(it WorkItem) pipe.CopyParams { return pipe.Contiguous(it.Len) }

func (s single) span(lane int) (int, int, int, int) {
	return rowSpan(s.p, s.p.FirstRow(lane), s.p.LaneUnits(lane))
}

// small moves up to Group rows per iteration in one strided transfer per
// operand. Unaligned rows are padded to the transfer block in local memory.
type small struct{ p tiling.Plan }

// loops is the lane's full groups plus one iteration for any partial group.
// The tail lane takes its own bound from the plan.
func (s small) loops(lane int) int { return s.p.LaneLoops(lane) }

func (s small) item(lane, loop int) WorkItem {
	n := s.p.RowLen
	rows := min(s.p.Group, s.p.LaneUnits(lane)-loop*s.p.Group)
	row := s.p.FirstRow(lane) + loop*s.p.Group
	return WorkItem{
		Lane: lane, Loop: loop,
		InputA: row * 2 * n, InputB: row*2*n + n, Output: row * n,
		Rows: rows, Len: n, Pitch: s.p.AlignedRowLen(),
	}
}

func (s small) inParams(it WorkItem) pipe.CopyParams {
	return pipe.CopyParams{
		BlockCount: it.Rows,
		BlockLen:   it.Len,
		SrcPitch:   2 * s.p.RowLen,
		DstPitch:   it.Pitch,
		RightPad:   it.Pitch - it.Len,
	}
}

func (s small) outParams(it WorkItem) pipe.CopyParams {
	return pipe.CopyParams{
		BlockCount: it.Rows,
		BlockLen:   it.Len,
		SrcPitch:   it.Pitch,
		DstPitch:   s.p.RowLen,
	}
}

func (s small) span(lane int) (int, int, int, int) {
	return rowSpan(s.p, s.p.FirstRow(lane), s.p.LaneUnits(lane))
}

// big splits rows into SplitSize chunks plus a tail chunk and deals the
// chunks to lanes round-robin.
type big struct{ p tiling.Plan }

func (s big) loops(lane int) int { return s.p.LaneUnits(lane) }

func (s big) item(lane, loop int) WorkItem {
	n := s.p.RowLen
	g := s.p.RealCoreNum*loop + lane
	row, chunk := g/s.p.ChunksPerRow(), g%s.p.ChunksPerRow()
	length := s.p.SplitSize
	if chunk == s.p.Group {
		length = s.p.TailLoopNum
	}
	off := chunk * s.p.SplitSize
	return WorkItem{
		Lane: lane, Loop: loop,
		InputA: row*2*n + off, InputB: row*2*n + n + off, Output: row*n + off,
		Rows: 1, Len: length, Pitch: hwy.AlignUp(length, s.p.BlockSize),
	}
}

func (s big) inParams(it WorkItem) pipe.CopyParams {
	return pipe.CopyParams{
		BlockCount: 1,
		BlockLen:   it.Len,
		SrcPitch:   it.Len,
		DstPitch:   it.Pitch,
		RightPad:   it.Pitch - it.Len,
	}
}

func (s big) outParams(it WorkItem) pipe.CopyParams { return pipe.Contiguous(it.Len) }

// span covers the whole tensors: round-robin chunks of different lanes
// interleave within a row.
func (s big) span(int) (int, int, int, int) {
	return rowSpan(s.p, 0, s.p.Rows)
}
