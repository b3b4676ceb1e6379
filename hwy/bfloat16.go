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

import "math"

// BFloat16 is a Brain Float 16 value stored as its bit pattern.
//
// Format: Sign (1 bit) | Exponent (8 bits, bias 127) | Mantissa (7 bits)
//
//	S | EEEEEEEE | MMMMMMM
//
// BFloat16 is float32 with the low 16 mantissa bits dropped: it keeps the
// float32 range but only ~2.4 decimal digits, which is why transcendental
// functions on it are always evaluated in float32.
type BFloat16 uint16

// BFloat16 constants for special values.
const (
	BFloat16Zero   BFloat16 = 0x0000
	BFloat16One    BFloat16 = 0x3F80
	BFloat16Half   BFloat16 = 0x3F00
	BFloat16Inf    BFloat16 = 0x7F80
	BFloat16NegInf BFloat16 = 0xFF80
	BFloat16NaN    BFloat16 = 0x7FC0 // canonical quiet NaN
)

// BFloat16ToFloat32 widens b to float32. The conversion is a shift.
func BFloat16ToFloat32(b BFloat16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Float32ToBFloat16 narrows f with round-to-nearest-even on the dropped
// 16 bits. NaNs stay NaN (quiet bit forced) with their sign preserved.
func Float32ToBFloat16(f float32) BFloat16 {
	bits := math.Float32bits(f)
	if bits&0x7FFFFFFF > 0x7F800000 {
		return BFloat16(bits>>16 | 0x0040)
	}
	// Adding 0x7FFF plus the lowest kept bit rounds ties to even.
	bits += 0x7FFF + (bits>>16)&1
	return BFloat16(bits >> 16)
}

// NewBFloat16 rounds f to the nearest BFloat16.
func NewBFloat16(f float32) BFloat16 {
	return Float32ToBFloat16(f)
}

// Float32 converts b to float32.
func (b BFloat16) Float32() float32 {
	return BFloat16ToFloat32(b)
}

// Float64 converts b to float64.
func (b BFloat16) Float64() float64 {
	return float64(BFloat16ToFloat32(b))
}

// IsNaN reports whether b is a NaN.
func (b BFloat16) IsNaN() bool {
	return b&0x7F80 == 0x7F80 && b&0x7F != 0
}

// IsInf reports whether b is an infinity of either sign.
func (b BFloat16) IsInf() bool {
	return b&0x7FFF == 0x7F80
}
