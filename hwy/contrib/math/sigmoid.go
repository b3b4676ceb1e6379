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

package math

import (
	stdmath "math"

	"github.com/ajroetker/go-tiling/hwy"
)

// sigmoid evaluates 1/(1+e^-x) without overflowing exp: for negative x it
// uses the equivalent e^x/(1+e^x).
func sigmoid[T hwy.Floats](x T) T {
	e := T(stdmath.Exp(-stdmath.Abs(float64(x))))
	if x >= 0 {
		return 1 / (1 + e)
	}
	return e / (1 + e)
}

// Sigmoid computes sigmoid(src[i]) into dst[i] in the precision of T.
// It processes min(len(dst), len(src)) elements. dst and src may alias.
func Sigmoid[T hwy.Floats](dst, src []T) {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = sigmoid(src[i])
	}
}

// SigmoidFloat16 computes sigmoid in half precision: every result is
// rounded to binary16, as a native fp16 unit would produce it.
func SigmoidFloat16(dst, src []hwy.Float16) {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = hwy.Float32ToFloat16(sigmoid(hwy.Float16ToFloat32(src[i])))
	}
}
