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
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

type interval struct {
	start, end int
	lane, loop int
}

// CheckPartition walks every lane of plan, idle ones included, through the
// same work items the kernel executes and checks that:
//
//   - idle lanes have no work items;
//   - every transfer stays inside the lane's span and its local slot;
//   - the input blocks read cover x exactly once, and the output blocks
//     written cover y exactly once.
//
// It returns an error wrapping tiling.ErrPartition or tiling.ErrCapacity,
// or the plan's Validate error.
func CheckPartition(plan tiling.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	sh := newShape(plan)
	var in, out []interval
	for lane := range plan.TotalCoreNum {
		loops := sh.loops(lane)
		if lane >= plan.RealCoreNum {
			if loops != 0 {
				return fmt.Errorf("%w: idle lane %d has %d iterations", tiling.ErrPartition, lane, loops)
			}
			continue
		}

		inOff, inLen, outOff, outLen := sh.span(lane)
		for loop := range loops {
			it := sh.item(lane, loop)
			ip, op := sh.inParams(it), sh.outParams(it)
			if local := (ip.BlockCount-1)*ip.DstPitch + ip.BlockLen + ip.RightPad; local > plan.IterElems() {
				return fmt.Errorf("%w: lane %d loop %d stages %d elements into slots of %d",
					tiling.ErrCapacity, lane, loop, local, plan.IterElems())
			}
			if it.Rows*it.Pitch > plan.IterElems() {
				return fmt.Errorf("%w: lane %d loop %d computes %d elements in slots of %d",
					tiling.ErrCapacity, lane, loop, it.Rows*it.Pitch, plan.IterElems())
			}
			for b := range ip.BlockCount {
				for _, base := range []int{it.InputA, it.InputB} {
					s := base + b*ip.SrcPitch
					in = append(in, interval{s, s + ip.BlockLen, lane, loop})
				}
			}
			for b := range op.BlockCount {
				s := it.Output + b*op.DstPitch
				out = append(out, interval{s, s + op.BlockLen, lane, loop})
			}
		}
		if err := checkSpan(in, inOff, inLen, lane, "input"); err != nil {
			return err
		}
		if err := checkSpan(out, outOff, outLen, lane, "output"); err != nil {
			return err
		}
	}

	if err := checkCover(in, plan.Rows*2*plan.RowLen, "input"); err != nil {
		return err
	}
	return checkCover(out, plan.Rows*plan.RowLen, "output")
}

// checkSpan checks the intervals of lane, which sit at the end of ivs.
func checkSpan(ivs []interval, off, length, lane int, what string) error {
	for i := len(ivs) - 1; i >= 0 && ivs[i].lane == lane; i-- {
		if iv := ivs[i]; iv.start < off || iv.end > off+length {
			return fmt.Errorf("%w: lane %d loop %d %s [%d, %d) outside its span [%d, %d)",
				tiling.ErrPartition, lane, iv.loop, what, iv.start, iv.end, off, off+length)
		}
	}
	return nil
}

// checkCover checks that ivs tile [0, total) with no gap and no overlap.
func checkCover(ivs []interval, total int, what string) error {
	slices.SortFunc(ivs, func(a, b interval) int { return cmp.Compare(a.start, b.start) })
	next := 0
	for _, iv := range ivs {
		switch {
		case iv.start < next:
			return fmt.Errorf("%w: %s [%d, %d) of lane %d loop %d overlaps earlier work",
				tiling.ErrPartition, what, iv.start, iv.end, iv.lane, iv.loop)
		case iv.start > next:
			return fmt.Errorf("%w: %s gap [%d, %d)", tiling.ErrPartition, what, next, iv.start)
		}
		next = iv.end
	}
	if next != total {
		return fmt.Errorf("%w: %s covered up to %d of %d", tiling.ErrPartition, what, next, total)
	}
	return nil
}

// Sweep runs CheckPartition on every plan concurrently and returns the
// first defect found, or ctx's error if it is cancelled first.
func Sweep(ctx context.Context, plans []tiling.Plan) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range plans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := CheckPartition(p); err != nil {
				return fmt.Errorf("plan %d (%v): %w", i, p, err)
			}
			return nil
		})
	}
	return g.Wait()
}
