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

// Package glu implements the gated linear unit y = sigmoid(b) * a over a
// fused [Rows, 2*RowLen] input whose row halves are a and b.
//
// Run executes a tiling.Plan on a fixed array of compute lanes. Each lane
// owns a static list of work items and pipelines them through three
// stages: CopyIn stages both operands from the global input into local
// memory, Compute evaluates the GLU, and CopyOut writes the result back.
// Two-slot staging queues let the CopyIn of one iteration overlap the
// Compute and CopyOut of the previous one.
//
// Run checks every plan with CheckPartition, which includes
// tiling.Plan.Validate, before any lane starts. A launch either runs every
// lane to completion or is refused without writing any output.
package glu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/pipe"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
	"github.com/ajroetker/go-tiling/hwy/contrib/workerpool"
)

// ErrLaunch wraps every reason a launch is refused.
var ErrLaunch = errors.New("glu: launch refused")

type config struct {
	depth  int
	logger *slog.Logger
}

// Option configures Run.
type Option func(*config)

// WithQueueDepth sets the slot count of the staging queues, 1 or 2. The
// default is 2. Big plans always use a single output slot.
func WithQueueDepth(depth int) Option {
	return func(c *config) { c.depth = depth }
}

// WithLogger sets the logger for launch records. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Report describes a completed launch.
type Report struct {
	Plan  tiling.Plan
	Depth int
	Path  Path
	// Lanes has one entry per launched lane, TotalCoreNum in all.
	Lanes []LaneStats
}

// Run computes y = sigmoid(b) * a for x = [a | b] as partitioned by plan,
// launching plan.TotalCoreNum lanes on pool. A nil pool runs the lanes one
// after another on the calling goroutine.
//
// x must hold Rows*2*RowLen elements and y Rows*RowLen. The launch is
// refused with an error wrapping ErrLaunch if the plan fails CheckPartition
// or does not match T or the buffers; y is untouched in that case.
func Run[T hwy.Storage](pool *workerpool.Pool, plan tiling.Plan, x, y []T, opts ...Option) (Report, error) {
	cfg := config{depth: 2, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.depth != 1 && cfg.depth != 2 {
		return Report{}, fmt.Errorf("%w: queue depth %d", ErrLaunch, cfg.depth)
	}
	if err := CheckPartition(plan); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if dt := tiling.DTypeOf[T](); dt != plan.DType {
		return Report{}, fmt.Errorf("%w: %s buffers for a %s plan", ErrLaunch, dt, plan.DType)
	}
	if len(x) != plan.Rows*2*plan.RowLen || len(y) != plan.Rows*plan.RowLen {
		return Report{}, fmt.Errorf("%w: buffers of %d and %d elements for [%d, %d]",
			ErrLaunch, len(x), len(y), plan.Rows, plan.RowLen)
	}

	report := Report{
		Plan:  plan,
		Depth: cfg.depth,
		Path:  PathFor[T](),
		Lanes: make([]LaneStats, plan.TotalCoreNum),
	}
	cfg.logger.Debug("glu launch",
		"strategy", plan.Strategy,
		"dtype", plan.DType,
		"path", report.Path,
		"lanes", plan.RealCoreNum,
		"totalLanes", plan.TotalCoreNum,
		"depth", cfg.depth,
		"localBytes", plan.LocalBytesAt(cfg.depth))

	sh := newShape(plan)
	gx, gy := pipe.NewGlobal(x), pipe.NewGlobal(y)
	runLane := func(id int) {
		l := &lane[T]{id: id, plan: plan, depth: cfg.depth, shape: sh, x: gx, y: gy}
		report.Lanes[id] = l.process()
	}

	if pool == nil {
		for id := range plan.TotalCoreNum {
			runLane(id)
		}
	} else {
		pool.Launch(plan.TotalCoreNum, runLane)
	}
	return report, nil
}

// Totals sums the statistics of all lanes. Its LocalBytes is the largest
// reservation of any single lane.
func (r Report) Totals() LaneStats {
	var t LaneStats
	for _, s := range r.Lanes {
		t.Loops += s.Loops
		t.ReadCalls += s.ReadCalls
		t.WriteCalls += s.WriteCalls
		t.ElemsRead += s.ElemsRead
		t.ElemsWritten += s.ElemsWritten
		t.LocalBytes = max(t.LocalBytes, s.LocalBytes)
	}
	return t
}
