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

package hwy

// PromoteToFloat32 widens src into dst element by element.
// It processes min(len(dst), len(src)) elements and returns that count.
//
// Widening is exact for Float16 and BFloat16; float64 inputs are rounded
// to the nearest float32.
func PromoteToFloat32[T Storage](dst []float32, src []T) int {
	n := min(len(dst), len(src))
	switch s := any(src).(type) {
	case []float32:
		copy(dst[:n], s[:n])
	case []float64:
		for i := range n {
			dst[i] = float32(s[i])
		}
	case []Float16:
		for i := range n {
			dst[i] = Float16ToFloat32(s[i])
		}
	case []BFloat16:
		for i := range n {
			dst[i] = BFloat16ToFloat32(s[i])
		}
	}
	return n
}

// DemoteFromFloat32 narrows src into dst with round-to-nearest-even.
// It processes min(len(dst), len(src)) elements and returns that count.
func DemoteFromFloat32[T Storage](dst []T, src []float32) int {
	n := min(len(dst), len(src))
	switch d := any(dst).(type) {
	case []float32:
		copy(d[:n], src[:n])
	case []float64:
		for i := range n {
			d[i] = float64(src[i])
		}
	case []Float16:
		for i := range n {
			d[i] = Float32ToFloat16(src[i])
		}
	case []BFloat16:
		for i := range n {
			d[i] = Float32ToBFloat16(src[i])
		}
	}
	return n
}

// FromFloat64 rounds v to the nearest value of type T. It is meant for
// building inputs and constants, not for hot loops.
func FromFloat64[T Storage](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = float32(v)
	case *float64:
		*p = v
	case *Float16:
		*p = Float32ToFloat16(float32(v))
	case *BFloat16:
		*p = Float32ToBFloat16(float32(v))
	}
	return out
}

// ToFloat64 widens v to float64.
func ToFloat64[T Storage](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case Float16:
		return x.Float64()
	case BFloat16:
		return x.Float64()
	}
	return 0
}
