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
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

var title = cases.Title(language.English)

func newPlanCmd() *cobra.Command {
	var (
		pf    platformFlags
		shape shapeFlags
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the partition of one shape",
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
			return printPlan(cmd.OutOrStdout(), plan)
		},
	}
	pf.register(cmd.Flags())
	shape.register(cmd.Flags())
	return cmd
}

func printPlan(w io.Writer, p tiling.Plan) error {
	fmt.Fprintf(w, "%s strategy, %s, [%d, %d] -> [%d, %d]\n",
		title.String(p.Strategy.String()), p.DType, p.Rows, 2*p.RowLen, p.Rows, p.RowLen)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range []struct {
		name  string
		value int
	}{
		{"splitSize", p.SplitSize},
		{"blockSize", p.BlockSize},
		{"group", p.Group},
		{"totalCoreNum", p.TotalCoreNum},
		{"realCoreNum", p.RealCoreNum},
		{"numPerCore", p.NumPerCore()},
		{"loopNum", p.LoopNum},
		{"nLastTailGroup", p.NLastTailGroup},
		{"tailLoopNum", p.TailLoopNum},
		{"tailLanes", p.TailLanes()},
		{"lastTailGroup", p.LastTailGroup},
		{"ubSize", p.UBSize},
		{"localBytes", p.LocalBytes()},
	} {
		fmt.Fprintf(tw, "  %s\t%d\n", f.name, f.value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	unit := lo.Ternary(p.Strategy == tiling.Big, "chunks", "rows")
	units := lo.Map(lo.Range(p.RealCoreNum), func(lane, _ int) int { return p.LaneUnits(lane) })
	fmt.Fprintf(w, "%s per lane: %v (total %d)\n", title.String(unit), units, lo.Sum(units))
	return nil
}
