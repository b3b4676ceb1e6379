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

package tiling

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

var (
	// ErrInvalidPlan reports fields that are inconsistent with the strategy.
	ErrInvalidPlan = errors.New("tiling: invalid plan")
	// ErrCoreCount reports a lane count outside [1, TotalCoreNum].
	ErrCoreCount = errors.New("tiling: invalid lane count")
	// ErrPartition reports lane assignments that do not cover the input
	// exactly once.
	ErrPartition = errors.New("tiling: partition does not cover the input")
	// ErrCapacity reports a plan whose staging buffers exceed local memory.
	ErrCapacity = errors.New("tiling: local memory exceeded")
)

// Validate checks the arithmetic invariants of the plan. A plan that passes
// assigns every row (or chunk) to exactly one active lane, keeps the work of
// any two lanes within one group (one chunk for Big) of each other and fits
// every lane's reservations in UBSize.
func (p Plan) Validate() error {
	if p.Rows <= 0 || p.RowLen <= 0 || p.BlockSize <= 0 || p.SplitSize <= 0 {
		return fmt.Errorf("%w: rows=%d rowLen=%d block=%d split=%d", ErrInvalidPlan, p.Rows, p.RowLen, p.BlockSize, p.SplitSize)
	}
	if p.DType > BFloat16 {
		return fmt.Errorf("%w: %s", ErrInvalidPlan, p.DType)
	}
	if p.TotalCoreNum <= 0 || p.RealCoreNum < 1 || p.RealCoreNum > p.TotalCoreNum {
		return fmt.Errorf("%w: realCoreNum=%d totalCoreNum=%d", ErrCoreCount, p.RealCoreNum, p.TotalCoreNum)
	}

	var err error
	switch p.Strategy {
	case Single:
		err = p.validateSingle()
	case Small:
		err = p.validateSmall()
	case Big:
		err = p.validateBig()
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidPlan, p.Strategy)
	}
	if err != nil {
		return err
	}

	return p.checkCapacity()
}

// checkCapacity compares the staged elements against UBSize by division so
// that oversized fields cannot wrap the byte count.
func (p Plan) checkCapacity() error {
	limit := p.UBSize / elemCost(p.DType, 2, p.OutDepth())
	if p.Strategy == Small && p.Group > limit/p.AlignedRowLen() {
		return fmt.Errorf("%w: %d rows of %d elements per iteration, local memory holds %d",
			ErrCapacity, p.Group, p.AlignedRowLen(), limit)
	}
	if n := p.IterElems(); n > limit {
		return fmt.Errorf("%w: %d elements per iteration, local memory holds %d", ErrCapacity, n, limit)
	}
	return nil
}

func (p Plan) validateRows() error {
	if p.SplitSize != p.RowLen {
		return fmt.Errorf("%w: %s plan splits rows (split=%d rowLen=%d)", ErrInvalidPlan, p.Strategy, p.SplitSize, p.RowLen)
	}
	if p.Group < 1 || p.LoopNum < 0 || p.TailLoopNum < 0 {
		return fmt.Errorf("%w: group=%d loopNum=%d tailLoopNum=%d", ErrInvalidPlan, p.Group, p.LoopNum, p.TailLoopNum)
	}
	if p.NLastTailGroup < 0 || p.NLastTailGroup >= p.Group || p.LastTailGroup < 0 || p.LastTailGroup >= p.Group {
		return fmt.Errorf("%w: partial groups nLastTailGroup=%d lastTailGroup=%d exceed group=%d",
			ErrInvalidPlan, p.NLastTailGroup, p.LastTailGroup, p.Group)
	}
	if p.RealCoreNum > p.Rows {
		return fmt.Errorf("%w: %d lanes for %d rows", ErrCoreCount, p.RealCoreNum, p.Rows)
	}
	if p.LoopNum > p.Rows/p.Group || p.TailLoopNum > p.Rows {
		return fmt.Errorf("%w: loopNum=%d tailLoopNum=%d group=%d exceed %d rows",
			ErrPartition, p.LoopNum, p.TailLoopNum, p.Group, p.Rows)
	}

	units := lo.Map(lo.Range(p.RealCoreNum), func(lane, _ int) int {
		return p.LaneUnits(lane)
	})
	for lane, n := range units {
		if n < 1 {
			return fmt.Errorf("%w: lane %d owns no rows", ErrPartition, lane)
		}
	}
	if sum := lo.Sum(units); sum != p.Rows {
		return fmt.Errorf("%w: lanes own %d rows, input has %d", ErrPartition, sum, p.Rows)
	}
	if spread := lo.Max(units) - lo.Min(units); spread > p.Group {
		return fmt.Errorf("%w: lane row counts %v differ by %d, more than group=%d", ErrPartition, units, spread, p.Group)
	}
	return nil
}

func (p Plan) validateSingle() error {
	if p.Group != 1 {
		return fmt.Errorf("%w: single plan with group=%d", ErrInvalidPlan, p.Group)
	}
	if !p.Aligned() {
		return fmt.Errorf("%w: single plan needs aligned rows (rowLen=%d block=%d)", ErrInvalidPlan, p.RowLen, p.BlockSize)
	}
	return p.validateRows()
}

func (p Plan) validateSmall() error {
	if err := p.validateRows(); err != nil {
		return err
	}
	if n := p.NumPerCore(); p.Group > n {
		return fmt.Errorf("%w: group=%d exceeds the %d rows of the largest lane", ErrInvalidPlan, p.Group, n)
	}
	return nil
}

func (p Plan) validateBig() error {
	if p.SplitSize%p.BlockSize != 0 {
		return fmt.Errorf("%w: split=%d is not a multiple of block=%d", ErrInvalidPlan, p.SplitSize, p.BlockSize)
	}
	if p.NLastTailGroup != 0 || p.LastTailGroup != 0 {
		return fmt.Errorf("%w: big plan with nLastTailGroup=%d lastTailGroup=%d",
			ErrInvalidPlan, p.NLastTailGroup, p.LastTailGroup)
	}
	if p.Group != p.RowLen/p.SplitSize || p.TailLoopNum != p.RowLen%p.SplitSize {
		return fmt.Errorf("%w: rowLen=%d is not group=%d chunks of %d plus a tail of %d",
			ErrPartition, p.RowLen, p.Group, p.SplitSize, p.TailLoopNum)
	}
	total := p.TotalChunks()
	if p.RealCoreNum > total {
		return fmt.Errorf("%w: %d lanes for %d chunks", ErrCoreCount, p.RealCoreNum, total)
	}
	if p.LoopNum != (total+p.RealCoreNum-1)/p.RealCoreNum {
		return fmt.Errorf("%w: loopNum=%d does not cover %d chunks on %d lanes", ErrPartition, p.LoopNum, total, p.RealCoreNum)
	}
	units := lo.Map(lo.Range(p.RealCoreNum), func(lane, _ int) int {
		return p.LaneUnits(lane)
	})
	if lo.Sum(units) != total || lo.Max(units)-lo.Min(units) > 1 {
		return fmt.Errorf("%w: chunk counts %v", ErrPartition, units)
	}
	return nil
}
