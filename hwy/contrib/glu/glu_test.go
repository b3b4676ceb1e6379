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
	"bytes"
	"fmt"
	"log/slog"
	stdmath "math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/math"
	"github.com/ajroetker/go-tiling/hwy/contrib/pipe"
	"github.com/ajroetker/go-tiling/hwy/contrib/tiling"
	"github.com/ajroetker/go-tiling/hwy/contrib/workerpool"
)

const ub = 192 << 10

func newPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	pool := workerpool.New(4)
	t.Cleanup(pool.Close)
	return pool
}

// makeInput builds a [rows, 2*rowLen] input from per-element generators of
// the a and b halves.
func makeInput[T hwy.Storage](rows, rowLen int, a, b func(r, j int) float64) []T {
	x := make([]T, rows*2*rowLen)
	for r := range rows {
		for j := range rowLen {
			x[r*2*rowLen+j] = hwy.FromFloat64[T](a(r, j))
			x[r*2*rowLen+rowLen+j] = hwy.FromFloat64[T](b(r, j))
		}
	}
	return x
}

// varied gives every element a distinct, negative gate value so that
// padding, which computes sigmoid(1) * 1 > 0, can never match.
func varied(rowLen int) (a, b func(r, j int) float64) {
	a = func(r, j int) float64 { return -float64(r*rowLen+j+1) / 8 }
	b = func(r, j int) float64 { return float64((r*7+j*3)%17-8) / 4 }
	return a, b
}

// wantFloat32 mirrors the direct float32 path element by element.
func wantFloat32(rows, rowLen int, x []float32) []float32 {
	y := make([]float32, rows*rowLen)
	for r := range rows {
		b := x[r*2*rowLen+rowLen : (r+1)*2*rowLen]
		sig := make([]float32, rowLen)
		math.Sigmoid(sig, b)
		for j := range rowLen {
			y[r*rowLen+j] = sig[j] * x[r*2*rowLen+j]
		}
	}
	return y
}

func TestScenarioHalf(t *testing.T) {
	plan := tiling.Plan{
		Strategy: tiling.Single, DType: tiling.Float32, Rows: 1, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
		TotalCoreNum: 1, RealCoreNum: 1, LoopNum: 1, UBSize: ub,
	}
	x := []float32{1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	y := make([]float32, 8)

	report, err := Run(newPool(t), plan, x, y)
	require.NoError(t, err)

	want := []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	if diff := cmp.Diff(want, y); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, LaneStats{Loops: 1, ReadCalls: 2, WriteCalls: 1, ElemsRead: 16, ElemsWritten: 8, LocalBytes: plan.LocalBytes()},
		report.Lanes[0])
}

// TestTailCore runs three rows on two lanes with loopNum 1 and tailLoopNum
// 1: lane 0 absorbs the remainder and takes two rows, the tail lane one.
func TestTailCore(t *testing.T) {
	plans := map[string]tiling.Plan{
		"Single": {
			Strategy: tiling.Single, DType: tiling.Float32, Rows: 3, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
			TotalCoreNum: 2, RealCoreNum: 2, LoopNum: 1, TailLoopNum: 1, UBSize: ub,
		},
		"Small": {
			Strategy: tiling.Small, DType: tiling.Float32, Rows: 3, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
			TotalCoreNum: 2, RealCoreNum: 2, LoopNum: 1, TailLoopNum: 1, UBSize: ub,
		},
		"Big": {
			Strategy: tiling.Big, DType: tiling.Float32, Rows: 3, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
			TotalCoreNum: 2, RealCoreNum: 2, LoopNum: 2, UBSize: ub,
		},
	}
	for name, plan := range plans {
		t.Run(name, func(t *testing.T) {
			a, b := varied(plan.RowLen)
			x := makeInput[float32](plan.Rows, plan.RowLen, a, b)
			y := make([]float32, plan.Rows*plan.RowLen)

			report, err := Run(newPool(t), plan, x, y)
			require.NoError(t, err)
			assert.Equal(t, 2, report.Lanes[0].Loops)
			assert.Equal(t, 1, report.Lanes[1].Loops)
			assert.Equal(t, 3, report.Totals().Loops)
			assert.Equal(t, 24, report.Totals().ElemsWritten)
			if diff := cmp.Diff(wantFloat32(plan.Rows, plan.RowLen, x), y); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIdleLanes(t *testing.T) {
	plan, err := tiling.NewPlan(3, 64, tiling.Float32, tiling.Platform{TotalCoreNum: 8, UBSize: ub, BlockBytes: 32, BurstBytes: 128})
	require.NoError(t, err)
	require.Equal(t, 3, plan.RealCoreNum)

	a, b := varied(plan.RowLen)
	x := makeInput[float32](plan.Rows, plan.RowLen, a, b)
	y := make([]float32, plan.Rows*plan.RowLen)
	report, err := Run(newPool(t), plan, x, y)
	require.NoError(t, err)

	require.Len(t, report.Lanes, 8)
	for lane := plan.RealCoreNum; lane < 8; lane++ {
		assert.Zero(t, report.Lanes[lane], "idle lane %d", lane)
	}
	for lane := range plan.RealCoreNum {
		assert.NotZero(t, report.Lanes[lane].ElemsRead, "active lane %d", lane)
	}
}

func testQueueDepth[T hwy.Storage](t *testing.T, rows, rowLen int, pf tiling.Platform) {
	plan, err := tiling.NewPlan(rows, rowLen, tiling.DTypeOf[T](), pf)
	require.NoError(t, err)

	a, b := varied(rowLen)
	x := makeInput[T](rows, rowLen, a, b)
	pool := newPool(t)

	y1 := make([]T, rows*rowLen)
	r1, err := Run(pool, plan, x, y1, WithQueueDepth(1))
	require.NoError(t, err)
	y2 := make([]T, rows*rowLen)
	r2, err := Run(pool, plan, x, y2, WithQueueDepth(2))
	require.NoError(t, err)

	if diff := cmp.Diff(y1, y2); diff != "" {
		t.Errorf("%v: depth 1 and depth 2 differ (-depth1 +depth2):\n%s", plan, diff)
	}
	assert.Equal(t, plan.LocalBytesAt(1), r1.Lanes[0].LocalBytes)
	assert.Equal(t, plan.LocalBytes(), r2.Lanes[0].LocalBytes)
}

func TestQueueDepthBitIdentical(t *testing.T) {
	pf := tiling.Platform{TotalCoreNum: 3, UBSize: 8 << 10, BlockBytes: 32, BurstBytes: 256}
	for _, tt := range []struct {
		name         string
		rows, rowLen int
	}{
		{"Single", 11, 128},
		{"SmallAligned", 13, 16},
		{"SmallUnaligned", 13, 5},
		{"Big", 3, 1000},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Run("float32", func(t *testing.T) { testQueueDepth[float32](t, tt.rows, tt.rowLen, pf) })
			t.Run("float64", func(t *testing.T) { testQueueDepth[float64](t, tt.rows, tt.rowLen, pf) })
			t.Run("Float16", func(t *testing.T) { testQueueDepth[hwy.Float16](t, tt.rows, tt.rowLen, pf) })
			t.Run("BFloat16", func(t *testing.T) { testQueueDepth[hwy.BFloat16](t, tt.rows, tt.rowLen, pf) })
		})
	}
}

func TestStrategySelection(t *testing.T) {
	pf := tiling.Platform{TotalCoreNum: 3, UBSize: 8 << 10, BlockBytes: 32, BurstBytes: 256}
	for _, tt := range []struct {
		rows, rowLen int
		want         tiling.Strategy
	}{
		{11, 128, tiling.Single},
		{13, 16, tiling.Small},
		{13, 5, tiling.Small},
		{3, 1000, tiling.Big},
	} {
		plan, err := tiling.NewPlan(tt.rows, tt.rowLen, tiling.Float32, pf)
		require.NoError(t, err)
		assert.Equal(t, tt.want, plan.Strategy, "%v", plan)
	}
}

// TestSmallPaddingNeverWritten sweeps every unaligned row length up to three
// transfer blocks. Padded elements are staged and computed but must never
// reach y, neither inside it nor past its ends.
func TestSmallPaddingNeverWritten(t *testing.T) {
	const guard = 16
	pf := tiling.Platform{TotalCoreNum: 3, UBSize: ub, BlockBytes: 32, BurstBytes: 512}
	pool := newPool(t)

	for rowLen := 1; rowLen <= 3*8; rowLen++ {
		if rowLen%8 == 0 {
			continue
		}
		t.Run(fmt.Sprint(rowLen), func(t *testing.T) {
			const rows = 7
			plan, err := tiling.NewPlan(rows, rowLen, tiling.Float32, pf)
			require.NoError(t, err)
			require.Equal(t, tiling.Small, plan.Strategy)
			require.False(t, plan.Aligned())

			a, b := varied(rowLen)
			x := makeInput[float32](rows, rowLen, a, b)
			n := rows * rowLen
			buf := make([]float32, n+2*guard)
			for i := range buf {
				buf[i] = -1234
			}
			y := buf[guard : guard+n : guard+n]

			report, err := Run(pool, plan, x, y)
			require.NoError(t, err)

			if diff := cmp.Diff(wantFloat32(rows, rowLen, x), y); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			for i := range guard {
				assert.Equal(t, float32(-1234), buf[i], "guard before y at %d", i)
				assert.Equal(t, float32(-1234), buf[guard+n+i], "guard after y at %d", i)
			}
			totals := report.Totals()
			assert.Equal(t, 2*n, totals.ElemsRead)
			assert.Equal(t, n, totals.ElemsWritten)
		})
	}
}

func TestSmallCoalescing(t *testing.T) {
	pf := tiling.Platform{TotalCoreNum: 4, UBSize: 2 << 10, BlockBytes: 32, BurstBytes: 512}
	plan, err := tiling.NewPlan(50, 3, tiling.Float32, pf)
	require.NoError(t, err)
	require.Equal(t, tiling.Small, plan.Strategy)
	require.Greater(t, plan.Group, 1)

	a, b := varied(plan.RowLen)
	x := makeInput[float32](plan.Rows, plan.RowLen, a, b)
	y := make([]float32, plan.Rows*plan.RowLen)
	report, err := Run(newPool(t), plan, x, y)
	require.NoError(t, err)

	for lane, s := range report.Lanes[:plan.RealCoreNum] {
		wantLoops := hwy.CeilDiv(plan.LaneUnits(lane), plan.Group)
		assert.Equal(t, wantLoops, s.Loops, "lane %d", lane)
		assert.Equal(t, 2*wantLoops, s.ReadCalls, "lane %d", lane)
		assert.Equal(t, wantLoops, s.WriteCalls, "lane %d", lane)
		assert.Equal(t, 2*plan.LaneUnits(lane)*plan.RowLen, s.ElemsRead, "lane %d", lane)
	}
	if diff := cmp.Diff(wantFloat32(plan.Rows, plan.RowLen, x), y); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBigChunkBijection(t *testing.T) {
	const blk, split = 8, 16
	for rows := 1; rows <= 4; rows++ {
		for group := 0; group <= 3; group++ {
			for _, tail := range []int{0, 3, 8} {
				if group == 0 && tail == 0 {
					continue
				}
				cpr := group
				if tail > 0 {
					cpr++
				}
				total := rows * cpr
				for lanes := 1; lanes <= min(5, total); lanes++ {
					plan := tiling.Plan{
						Strategy: tiling.Big, DType: tiling.Float32, Rows: rows, RowLen: group*split + tail,
						SplitSize: split, BlockSize: blk, Group: group, TotalCoreNum: lanes + 1, RealCoreNum: lanes,
						LoopNum: hwy.CeilDiv(total, lanes), TailLoopNum: tail, UBSize: ub,
					}
					require.NoError(t, plan.Validate(), "%v", plan)

					sh := newShape(plan)
					seen := make(map[[2]int][2]int)
					for lane := range plan.TotalCoreNum {
						for loop := range sh.loops(lane) {
							it := sh.item(lane, loop)
							row := it.Output / plan.RowLen
							chunk := (it.Output % plan.RowLen) / split
							key := [2]int{row, chunk}
							if prev, dup := seen[key]; dup {
								t.Fatalf("%v: chunk %v visited by (lane, loop) %v and (%d, %d)", plan, key, prev, lane, loop)
							}
							seen[key] = [2]int{lane, loop}
							wantLen := split
							if chunk == group {
								wantLen = tail
							}
							assert.Equal(t, wantLen, it.Len)
						}
					}
					assert.Len(t, seen, total, "%v", plan)
					assert.Zero(t, sh.loops(lanes), "idle lane of %v", plan)
					require.NoError(t, CheckPartition(plan))
				}
			}
		}
	}
}

func TestBigTailChunkPadding(t *testing.T) {
	pf := tiling.Platform{TotalCoreNum: 3, UBSize: 4 << 10, BlockBytes: 32, BurstBytes: 512}
	plan, err := tiling.NewPlan(4, 1001, tiling.Float32, pf)
	require.NoError(t, err)
	require.Equal(t, tiling.Big, plan.Strategy)
	require.NotZero(t, plan.TailLoopNum%plan.BlockSize)

	a, b := varied(plan.RowLen)
	x := makeInput[float32](plan.Rows, plan.RowLen, a, b)
	y := make([]float32, plan.Rows*plan.RowLen)
	report, err := Run(nil, plan, x, y)
	require.NoError(t, err)
	if diff := cmp.Diff(wantFloat32(plan.Rows, plan.RowLen, x), y); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, plan.TotalChunks(), report.Totals().WriteCalls)
}

// relBound checks |got - want| <= rel*|want| + abs.
func relBound(t *testing.T, got, want, rel, abs float64, msg string) {
	t.Helper()
	if diff := stdmath.Abs(got - want); diff > rel*stdmath.Abs(want)+abs {
		t.Errorf("%s: got %v, want %v (error %g exceeds %g)", msg, got, want, diff, rel*stdmath.Abs(want)+abs)
	}
}

func testNumeric[T hwy.Storage](t *testing.T, rel float64) {
	const rows, rowLen = 17, 33
	a := func(r, j int) float64 { return float64((r+j)%17-8) / 2 }
	b := func(r, j int) float64 { return float64((r*5+j)%65-32) / 4 }
	x := makeInput[T](rows, rowLen, a, b)

	pf := tiling.Platform{TotalCoreNum: 4, UBSize: 4 << 10, BlockBytes: 32, BurstBytes: 512}
	plan, err := tiling.NewPlan(rows, rowLen, tiling.DTypeOf[T](), pf)
	require.NoError(t, err)
	y := make([]T, rows*rowLen)
	_, err = Run(newPool(t), plan, x, y)
	require.NoError(t, err)

	for r := range rows {
		for j := range rowLen {
			// Inputs are exact in every storage type.
			require.Equal(t, a(r, j), hwy.ToFloat64(x[r*2*rowLen+j]))
			require.Equal(t, b(r, j), hwy.ToFloat64(x[r*2*rowLen+rowLen+j]))

			want := ReferenceValue(a(r, j), b(r, j))
			relBound(t, hwy.ToFloat64(y[r*rowLen+j]), want, rel, 1e-30, fmt.Sprintf("row %d col %d", r, j))
		}
	}
}

func TestNumericPaths(t *testing.T) {
	// One rounding to the storage type plus float32 compute error for the
	// promoted paths; native half precision rounds twice.
	t.Run("BFloat16", func(t *testing.T) { testNumeric[hwy.BFloat16](t, 1.0/256+1e-6) })
	t.Run("Float16", func(t *testing.T) { testNumeric[hwy.Float16](t, 2.0/2048+1e-6) })
	t.Run("float32", func(t *testing.T) { testNumeric[float32](t, 1e-6) })
	t.Run("float64", func(t *testing.T) { testNumeric[float64](t, 1e-14) })
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, PathPromote, PathFor[hwy.BFloat16]())
	assert.Equal(t, PathDirect, PathFor[float32]())
	assert.Equal(t, PathDirect, PathFor[float64]())
	if hwy.HasNativeFloat16() {
		assert.Equal(t, PathDirect, PathFor[hwy.Float16]())
	} else {
		assert.Equal(t, PathPromote, PathFor[hwy.Float16]())
	}
}

func TestRunRefuses(t *testing.T) {
	good := tiling.Plan{
		Strategy: tiling.Single, DType: tiling.Float32, Rows: 3, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
		TotalCoreNum: 2, RealCoreNum: 2, LoopNum: 1, TailLoopNum: 1, UBSize: ub,
	}
	tests := []struct {
		name  string
		plan  func() tiling.Plan
		xLen  int
		opts  []Option
		cause error
	}{
		{"TooManyLanes", func() tiling.Plan { p := good; p.RealCoreNum = 3; return p }, 48, nil, tiling.ErrCoreCount},
		{"BrokenPartition", func() tiling.Plan { p := good; p.Rows = 4; return p }, 64, nil, tiling.ErrPartition},
		{"NoMemory", func() tiling.Plan { p := good; p.UBSize = 100; return p }, 48, nil, tiling.ErrCapacity},
		{"HugeGroup", func() tiling.Plan {
			p := good
			p.Strategy, p.Group, p.LoopNum, p.NLastTailGroup, p.TailLoopNum, p.LastTailGroup = tiling.Small, 1<<61, 0, 2, 0, 1
			return p
		}, 48, nil, tiling.ErrInvalidPlan},
		{"WrongDType", func() tiling.Plan { p := good; p.DType = tiling.BFloat16; p.BlockSize = 16; p.RowLen = 16; p.SplitSize = 16; return p }, 96, nil, nil},
		{"ShortInput", func() tiling.Plan { return good }, 47, nil, nil},
		{"BadDepth", func() tiling.Plan { return good }, 48, []Option{WithQueueDepth(3)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := tt.plan()
			x := make([]float32, tt.xLen)
			y := make([]float32, plan.Rows*plan.RowLen)
			for i := range y {
				y[i] = 7
			}
			_, err := Run(newPool(t), plan, x, y, tt.opts...)
			require.ErrorIs(t, err, ErrLaunch)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			for i, v := range y {
				if v != 7 {
					t.Fatalf("y[%d] = %v written by a refused launch", i, v)
				}
			}
		})
	}
}

// overrunShape stages twice the row length into slots sized for one row.
type overrunShape struct{ shape }

func (s overrunShape) inParams(it WorkItem) pipe.CopyParams { return pipe.Contiguous(2 * it.Len) }

// TestStagePanicReachesLaunch checks that a defect on the CopyIn goroutine
// unblocks the other stages and is re-raised by Launch on the caller.
func TestStagePanicReachesLaunch(t *testing.T) {
	plan := tiling.Plan{
		Strategy: tiling.Single, DType: tiling.Float32, Rows: 4, RowLen: 8, SplitSize: 8, BlockSize: 8, Group: 1,
		TotalCoreNum: 2, RealCoreNum: 2, LoopNum: 2, UBSize: ub,
	}
	require.NoError(t, CheckPartition(plan))
	gx := pipe.NewGlobal(make([]float32, plan.Rows*2*plan.RowLen))
	gy := pipe.NewGlobal(make([]float32, plan.Rows*plan.RowLen))
	sh := overrunShape{newShape(plan)}

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		newPool(t).Launch(plan.TotalCoreNum, func(id int) {
			l := &lane[float32]{id: id, plan: plan, depth: 2, shape: sh, x: gx, y: gy}
			l.process()
		})
	}()

	lp, ok := recovered.(workerpool.LanePanic)
	require.True(t, ok, "recovered %v, want a LanePanic", recovered)
	assert.Contains(t, fmt.Sprint(lp.Value), "overruns")
}

func TestRunMatchesReference(t *testing.T) {
	pool := newPool(t)
	for _, cores := range []int{1, 3, 8} {
		for _, ubSize := range []int{2 << 10, ub} {
			pf := tiling.Platform{TotalCoreNum: cores, UBSize: ubSize, BlockBytes: 32, BurstBytes: 512}
			for _, rows := range []int{1, 2, 5, 16, 33} {
				for _, rowLen := range []int{1, 7, 8, 129, 256, 3000} {
					plan, err := tiling.NewPlan(rows, rowLen, tiling.Float32, pf)
					require.NoError(t, err)

					a, b := varied(rowLen)
					x := makeInput[float32](rows, rowLen, a, b)
					y := make([]float32, rows*rowLen)
					_, err = Run(pool, plan, x, y)
					require.NoError(t, err, "%v", plan)

					ref := make([]float32, rows*rowLen)
					Reference(pool, rowLen, x, ref)
					for i := range y {
						relBound(t, float64(y[i]), float64(ref[i]), 1e-6, 1e-30, fmt.Sprintf("%v element %d", plan, i))
					}
				}
			}
		}
	}
}

func TestReferenceSequential(t *testing.T) {
	x := []float64{2, -2, 0, 0}
	y := make([]float64, 2)
	Reference[float64](nil, 2, x, y)
	assert.Equal(t, []float64{1, -1}, y)
}

func TestRunLogsLaunch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	plan, err := tiling.NewPlan(4, 256, tiling.BFloat16, tiling.Platform{TotalCoreNum: 2, UBSize: ub, BlockBytes: 32, BurstBytes: 512})
	require.NoError(t, err)
	x := make([]hwy.BFloat16, 4*512)
	y := make([]hwy.BFloat16, 4*256)
	_, err = Run(nil, plan, x, y, WithLogger(logger), WithQueueDepth(1))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "glu launch")
	assert.Contains(t, out, "strategy=single")
	assert.Contains(t, out, "path=promote")
	assert.Contains(t, out, "depth=1")
}
