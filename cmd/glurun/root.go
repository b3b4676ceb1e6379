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
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
)

// platformFlags holds the platform overrides shared by every subcommand.
type platformFlags struct {
	cores, ub, block, burst int
}

func (f *platformFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.cores, "cores", 0, "number of lanes (default $HWY_CORE_NUM or GOMAXPROCS)")
	fs.IntVar(&f.ub, "ub", 0, "local memory per lane in bytes (default $HWY_UB_SIZE or 196608)")
	fs.IntVar(&f.block, "block", 0, "transfer block in bytes (default $HWY_BLOCK_BYTES or 32)")
	fs.IntVar(&f.burst, "burst", 0, "smallest row in bytes moved on its own (default $HWY_BURST_BYTES or 512)")
}

// platform applies the flags that were set on top of the environment.
func (f *platformFlags) platform() (tiling.Platform, error) {
	pf, err := tiling.PlatformFromEnv()
	if err != nil {
		return pf, err
	}
	for _, o := range []struct{ flag, dst *int }{
		{&f.cores, &pf.TotalCoreNum},
		{&f.ub, &pf.UBSize},
		{&f.block, &pf.BlockBytes},
		{&f.burst, &pf.BurstBytes},
	} {
		if *o.flag > 0 {
			*o.dst = *o.flag
		}
	}
	return pf, pf.Validate()
}

// shapeFlags selects one tensor shape and element type.
type shapeFlags struct {
	rows, cols int
	dtype      string
}

func (f *shapeFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.rows, "rows", 8, "rows of the output (leading dimensions flattened)")
	fs.IntVar(&f.cols, "cols", 1024, "elements per output row; input rows are twice as long")
	fs.StringVar(&f.dtype, "dtype", "float32", "element type: float32, float64, float16 or bfloat16")
}

func (f *shapeFlags) plan(pf tiling.Platform) (tiling.Plan, error) {
	dt, err := tiling.ParseDType(f.dtype)
	if err != nil {
		return tiling.Plan{}, err
	}
	return tiling.NewPlan(f.rows, f.cols, dt, pf)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "glurun",
		Short:        "Plan, run and check tiled GLU launches",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log launch details")

	root.AddCommand(newPlanCmd(), newRunCmd(), newSweepCmd())
	return root
}
