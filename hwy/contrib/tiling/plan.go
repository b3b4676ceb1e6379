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

// Package tiling describes how a batched row computation is partitioned
// across a fixed number of compute lanes, each with a small fixed-capacity
// local memory.
//
// A Plan is computed once, before any lane starts, and is read-only
// afterwards. NewPlan is the reference planner; Plan.Validate checks any
// plan, whatever produced it, before a launch is allowed.
//
// # Strategies
//
//   - Single: every lane processes a contiguous run of whole rows, one row
//     per iteration. Rows must be a multiple of the transfer block.
//   - Small: rows too short to amortize a transfer are grouped; Group rows
//     move in one strided transfer per iteration, each padded up to the
//     transfer block when unaligned.
//   - Big: rows larger than local memory are split into SplitSize chunks,
//     with a shorter tail chunk at the end of each row. Chunks are dealt to
//     lanes round-robin.
package tiling

import (
	"fmt"

	"github.com/ajroetker/go-tiling/hwy"
)

// Strategy selects the execution strategy of a Plan.
type Strategy uint8

const (
	Single Strategy = iota
	Small
	Big
)

func (s Strategy) String() string {
	switch s {
	case Single:
		return "single"
	case Small:
		return "small"
	case Big:
		return "big"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// DType is the element storage type of the input and output tensors.
type DType uint8

const (
	Float32 DType = iota
	Float64
	Float16
	BFloat16
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Float64:
		return 8
	case Float16, BFloat16:
		return 2
	default:
		return 4
	}
}

// IsNarrow reports whether the type is a 16-bit float that may need
// promotion to float32 for compute.
func (d DType) IsNarrow() bool {
	return d == Float16 || d == BFloat16
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// ParseDType parses the names returned by DType.String.
func ParseDType(s string) (DType, error) {
	for _, d := range []DType{Float32, Float64, Float16, BFloat16} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("tiling: unknown dtype %q (want float32, float64, float16 or bfloat16)", s)
}

// DTypeOf returns the DType of the storage type T.
func DTypeOf[T hwy.Storage]() DType {
	var zero T
	switch any(zero).(type) {
	case float64:
		return Float64
	case hwy.Float16:
		return Float16
	case hwy.BFloat16:
		return BFloat16
	default:
		return Float32
	}
}

// Plan holds the partition parameters of one kernel launch.
//
// The input is a row-major [Rows, 2*RowLen] tensor whose two row halves are
// the gate and linear operands; the output is [Rows, RowLen]. The meaning of
// the loop fields depends on Strategy:
//
//	field           Single / Small                       Big
//	SplitSize       RowLen                               chunk length
//	Group           rows per iteration (1 for Single)    full chunks per row
//	LoopNum         full groups every lane runs          round-robin rounds
//	NLastTailGroup  partial-group rows of normal lanes   0
//	TailLoopNum     extra rows per remainder lane        tail-chunk length
//	LastTailGroup   partial-group rows of the tail lane  0
//
// Under Single and Small every active lane owns LoopNum*Group rows plus its
// partial group. The leading TailLanes lanes absorb the remainder with
// TailLoopNum more rows each. Three rows on two lanes with Group 1 are
// LoopNum 1 and TailLoopNum 1: lane 0 owns two rows, the tail lane one.
type Plan struct {
	Strategy Strategy
	DType    DType

	Rows   int
	RowLen int

	SplitSize int
	BlockSize int
	Group     int

	TotalCoreNum int
	RealCoreNum  int

	LoopNum        int
	NLastTailGroup int
	TailLoopNum    int
	LastTailGroup  int

	UBSize int
}

// AlignedRowLen is RowLen rounded up to the transfer block.
func (p Plan) AlignedRowLen() int {
	return hwy.AlignUp(p.RowLen, p.BlockSize)
}

// Aligned reports whether rows need no padding in local memory.
func (p Plan) Aligned() bool {
	return hwy.IsAligned(p.RowLen, p.BlockSize)
}

// ChunksPerRow is the number of Big chunks per row, tail chunk included.
// It is 1 for the other strategies.
func (p Plan) ChunksPerRow() int {
	if p.Strategy != Big {
		return 1
	}
	if p.TailLoopNum > 0 {
		return p.Group + 1
	}
	return p.Group
}

// TotalChunks is the number of Big work items. For the other strategies it
// is the number of rows.
func (p Plan) TotalChunks() int {
	return p.Rows * p.ChunksPerRow()
}

// IterElems is the largest number of local elements one iteration stages
// per operand, padding included.
func (p Plan) IterElems() int {
	switch p.Strategy {
	case Small:
		return p.Group * p.AlignedRowLen()
	case Big:
		return p.SplitSize
	default:
		return p.RowLen
	}
}

// OutDepth is the deepest output queue the strategy allows.
func (p Plan) OutDepth() int {
	if p.Strategy == Big {
		return 1
	}
	return 2
}

// IsLastCore reports whether lane is the tail lane of a Single or Small
// plan, which runs its own loop bound instead of the normal lanes' one.
func (p Plan) IsLastCore(lane int) bool {
	return lane == p.RealCoreNum-1 && (p.TailLoopNum != 0 || p.LastTailGroup != 0)
}

// tailRows is the number of rows left over once every Single or Small lane
// has its full groups and partial group.
func (p Plan) tailRows() int {
	full := p.LoopNum * p.Group
	last := full + p.NLastTailGroup
	if p.IsLastCore(p.RealCoreNum - 1) {
		last = full + p.LastTailGroup
	}
	return p.Rows - (p.RealCoreNum-1)*(full+p.NLastTailGroup) - last
}

// TailLanes is the number of leading lanes of a Single or Small plan that
// absorb TailLoopNum extra rows each. The tail lane never absorbs.
func (p Plan) TailLanes() int {
	if p.Strategy == Big || p.TailLoopNum <= 0 || p.RealCoreNum < 1 {
		return 0
	}
	return min(max(0, p.tailRows()/p.TailLoopNum), p.RealCoreNum-1)
}

// LaneUnits returns the number of work units lane processes: rows for
// Single and Small, chunks for Big. Idle lanes get zero.
func (p Plan) LaneUnits(lane int) int {
	if lane < 0 || lane >= p.RealCoreNum {
		return 0
	}
	if p.Strategy == Big {
		total := p.TotalChunks()
		n := total / p.RealCoreNum
		if lane < total%p.RealCoreNum {
			n++
		}
		return n
	}
	full := p.LoopNum * p.Group
	if p.IsLastCore(lane) {
		return full + p.LastTailGroup
	}
	n := full + p.NLastTailGroup
	if lane < p.TailLanes() {
		n += p.TailLoopNum
	}
	return n
}

// NumPerCore is the largest number of work units any lane owns.
func (p Plan) NumPerCore() int {
	if p.RealCoreNum < 1 {
		return 0
	}
	return max(p.LaneUnits(0), p.LaneUnits(p.RealCoreNum-1))
}

// LaneLoops returns the number of pipeline iterations lane runs.
func (p Plan) LaneLoops(lane int) int {
	if p.Strategy == Small {
		return hwy.CeilDiv(p.LaneUnits(lane), p.Group)
	}
	return p.LaneUnits(lane)
}

// FirstRow is the first row owned by lane under Single and Small.
func (p Plan) FirstRow(lane int) int {
	normal := p.LoopNum*p.Group + p.NLastTailGroup
	return lane*normal + min(lane, p.TailLanes())*p.TailLoopNum
}

// LocalBytes is the local memory one lane reserves at the default queue
// depth of 2.
func (p Plan) LocalBytes() int {
	return p.LocalBytesAt(2)
}

// LocalBytesAt is the local memory one lane reserves with staging queues of
// the given depth: two input queues, the output queue (capped at OutDepth),
// the sigmoid working buffer and, for 16-bit types, three float32 compute
// buffers.
func (p Plan) LocalBytesAt(depth int) int {
	return p.IterElems() * elemCost(p.DType, depth, min(depth, p.OutDepth()))
}

func (p Plan) String() string {
	return fmt.Sprintf("%s %s rows=%d rowLen=%d split=%d block=%d group=%d cores=%d/%d loop=%d nLastTail=%d tailLoop=%d lastTail=%d ub=%d",
		p.Strategy, p.DType, p.Rows, p.RowLen, p.SplitSize, p.BlockSize, p.Group,
		p.RealCoreNum, p.TotalCoreNum, p.LoopNum, p.NLastTailGroup,
		p.TailLoopNum, p.LastTailGroup, p.UBSize)
}
