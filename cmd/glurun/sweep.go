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
	"log/slog"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-tiling/hwy/contrib/glu"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

func newSweepCmd() *cobra.Command {
	var (
		pf               platformFlags
		maxRows, maxCols int
		dtype            string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Plan every shape up to a size and check each partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			platform, err := pf.platform()
			if err != nil {
				return err
			}
			dtypes, err := parseDTypes(dtype)
			if err != nil {
				return err
			}

			var plans []tiling.Plan
			for _, dt := range dtypes {
				for rows := 1; rows <= maxRows; rows++ {
					for cols := 1; cols <= maxCols; cols++ {
						p, err := tiling.NewPlan(rows, cols, dt, platform)
						if err != nil {
							return err
						}
						plans = append(plans, p)
					}
				}
			}
			slog.Debug("sweep", "plans", len(plans), "platform", fmt.Sprintf("%+v", platform))

			if err := glu.Sweep(cmd.Context(), plans); err != nil {
				return err
			}
			counts := lo.CountValuesBy(plans, func(p tiling.Plan) tiling.Strategy { return p.Strategy })
			fmt.Fprintf(cmd.OutOrStdout(), "%d plans checked: %d single, %d small, %d big\n",
				len(plans), counts[tiling.Single], counts[tiling.Small], counts[tiling.Big])
			return nil
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().IntVar(&maxRows, "max-rows", 16, "largest row count")
	cmd.Flags().IntVar(&maxCols, "max-cols", 256, "largest row length")
	cmd.Flags().StringVar(&dtype, "dtype", "all", "element type, or all")
	return cmd
}

func parseDTypes(s string) ([]tiling.DType, error) {
	if s == "all" {
		return []tiling.DType{tiling.Float32, tiling.Float64, tiling.Float16, tiling.BFloat16}, nil
	}
	dt, err := tiling.ParseDType(s)
	if err != nil {
		return nil, err
	}
	return []tiling.DType{dt}, nil
}
