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
	"fmt"

	"github.com/ajroetker/go-tiling/hwy"
)

// elemCost is the local memory one staged element costs across all
// reservations of a lane, with input queues of depth and an output queue of
// depth outDepth.
func elemCost(dt DType, depth, outDepth int) int {
	c := dt.Size() * (2*depth + outDepth + 1)
	if dt.IsNarrow() {
		c += 3 * 4
	}
	return c
}

// NewPlan partitions a [rows, 2*rowLen] GLU input across the lanes of pf.
//
// Rows whose aligned length does not fit local memory are split (Big).
// Aligned rows of at least BurstBytes move one per iteration (Single).
// Everything else is grouped (Small). The returned plan has passed
// Validate.
func NewPlan(rows, rowLen int, dt DType, pf Platform) (Plan, error) {
	if rows <= 0 || rowLen <= 0 {
		return Plan{}, fmt.Errorf("%w: shape [%d, %d]", ErrInvalidPlan, rows, rowLen)
	}
	if err := pf.Validate(); err != nil {
		return Plan{}, err
	}

	size := dt.Size()
	blk := pf.BlockBytes / size
	p := Plan{
		DType:        dt,
		Rows:         rows,
		RowLen:       rowLen,
		BlockSize:    blk,
		TotalCoreNum: pf.TotalCoreNum,
		UBSize:       pf.UBSize,
	}

	aligned := hwy.AlignUp(rowLen, blk)
	switch {
	case aligned > pf.UBSize/elemCost(dt, 2, 2):
		planBig(&p, hwy.AlignDown(pf.UBSize/elemCost(dt, 2, 1), blk))
	case hwy.IsAligned(rowLen, blk) && rowLen*size >= pf.BurstBytes:
		p.Strategy = Single
		planRows(&p, 1)
	default:
		p.Strategy = Small
		maxElems := hwy.AlignDown(pf.UBSize/elemCost(dt, 2, 2), blk)
		planRows(&p, maxElems/aligned)
	}

	if err := p.Validate(); err != nil {
		return Plan{}, fmt.Errorf("tiling: planning [%d, %d] %s: %w", rows, rowLen, dt, err)
	}
	return p, nil
}

func planBig(p *Plan, split int) {
	p.Strategy = Big
	p.SplitSize = min(split, p.AlignedRowLen())
	if split == 0 {
		// Not even one block fits; Validate reports the capacity defect.
		p.SplitSize = p.BlockSize
	}
	p.Group = p.RowLen / p.SplitSize
	p.TailLoopNum = p.RowLen % p.SplitSize
	total := p.TotalChunks()
	p.RealCoreNum = min(p.TotalCoreNum, total)
	p.LoopNum = hwy.CeilDiv(total, p.RealCoreNum)
}

// planRows deals rows/RealCoreNum rows to every lane and one more to each
// of the first rows%RealCoreNum lanes.
func planRows(p *Plan, group int) {
	p.SplitSize = p.RowLen
	p.RealCoreNum = min(p.TotalCoreNum, p.Rows)
	per, rest := p.Rows/p.RealCoreNum, p.Rows%p.RealCoreNum
	p.Group = max(1, min(group, per))
	p.LoopNum = per / p.Group
	p.NLastTailGroup = per % p.Group
	p.LastTailGroup = p.NLastTailGroup
	if rest > 0 {
		p.TailLoopNum = 1
	}
}
