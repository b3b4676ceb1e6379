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
	stdmath "math"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/workerpool"
)

// Reference computes y = sigmoid(b) * a without tiling: every element is
// evaluated in float64 and rounded to T once. Rows are split across pool;
// a nil pool computes sequentially.
func Reference[T hwy.Storage](pool *workerpool.Pool, rowLen int, x, y []T) {
	rows := len(y) / rowLen
	fn := func(start, end int) {
		for r := start; r < end; r++ {
			a := x[r*2*rowLen : r*2*rowLen+rowLen]
			b := x[r*2*rowLen+rowLen : (r+1)*2*rowLen]
			out := y[r*rowLen : (r+1)*rowLen]
			for i := range out {
				out[i] = hwy.FromFloat64[T](ReferenceValue(hwy.ToFloat64(a[i]), hwy.ToFloat64(b[i])))
			}
		}
	}
	if pool == nil {
		fn(0, rows)
		return
	}
	pool.ParallelFor(rows, fn)
}

// ReferenceValue is sigmoid(b) * a in float64.
func ReferenceValue(a, b float64) float64 {
	return a / (1 + stdmath.Exp(-b))
}
