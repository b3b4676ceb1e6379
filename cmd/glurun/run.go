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

package main

import (
	"fmt"
	"io"
	stdmath "math"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/glu"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
	"github.com/ajroetker/go-tiling/hwy/contrib/workerpool"
)

type runFlags struct {
	depth int
	seed  uint64
}

func newRunCmd() *cobra.Command {
	var (
		pf    platformFlags
		shape shapeFlags
		rf    runFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one shape on random input and compare with the reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := pf.platform()
			if err != nil {
				return err
			}
			plan, err := shape.plan(platform)
			if err != nil {
				return err
			}
			if err := glu.CheckPartition(plan); err != nil {
				return err
			}

			pool := workerpool.New(platform.TotalCoreNum)
			defer pool.Close()

			w := cmd.OutOrStdout()
			switch plan.DType {
			case tiling.Float64:
				return runShape[float64](w, pool, plan, rf)
			case tiling.Float16:
				return runShape[hwy.Float16](w, pool, plan, rf)
			case tiling.BFloat16:
				return runShape[hwy.BFloat16](w, pool, plan, rf)
			default:
				return runShape[float32](w, pool, plan, rf)
			}
		},
	}
	pf.register(cmd.Flags())
	shape.register(cmd.Flags())
	cmd.Flags().IntVar(&rf.depth, "depth", 2, "staging queue depth, 1 or 2")
	cmd.Flags().Uint64Var(&rf.seed, "seed", 1, "random input seed")
	return cmd
}

func runShape[T hwy.Storage](w io.Writer, pool *workerpool.Pool, plan tiling.Plan, rf runFlags) error {
	rng := rand.New(rand.NewPCG(rf.seed, rf.seed^0x9E3779B97F4A7C15))
	x := make([]T, plan.Rows*2*plan.RowLen)
	for i := range x {
		x[i] = hwy.FromFloat64[T](rng.Float64()*16 - 8)
	}
	y := make([]T, plan.Rows*plan.RowLen)

	start := time.Now()
	report, err := glu.Run(pool, plan, x, y, glu.WithQueueDepth(rf.depth))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	ref := make([]T, len(y))
	glu.Reference(pool, plan.RowLen, x, ref)
	maxErr, mismatches := 0.0, 0
	for i := range y {
		d := stdmath.Abs(hwy.ToFloat64(y[i]) - hwy.ToFloat64(ref[i]))
		maxErr = max(maxErr, d)
		if y[i] != ref[i] {
			mismatches++
		}
	}

	if err := printPlan(w, plan); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s path, depth %d, %v\n", report.Path, report.Depth, elapsed)
	fmt.Fprintf(w, "max abs error vs reference %.3g, %d of %d elements differ from it\n",
		maxErr, mismatches, len(y))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "lane\tloops\treads\twrites\telems in\telems out\tlocal bytes\t")
	for lane, s := range report.Lanes {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			lane, s.Loops, s.ReadCalls, s.WriteCalls, s.ElemsRead, s.ElemsWritten, s.LocalBytes)
	}
	active := lo.CountBy(report.Lanes, func(s glu.LaneStats) bool { return s.Loops > 0 })
	t := report.Totals()
	fmt.Fprintf(tw, "%d active\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
		active, t.Loops, t.ReadCalls, t.WriteCalls, t.ElemsRead, t.ElemsWritten, t.LocalBytes)
	return tw.Flush()
}
