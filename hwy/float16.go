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

// Float16 is an IEEE 754 half-precision (binary16) value stored as its bit
// pattern.
//
// Format: Sign (1 bit) | Exponent (5 bits, bias 15) | Mantissa (10 bits)
//
//	S | EEEEE | MMMMMMMMMM
//
// Max finite value is 65504; precision is ~3.3 decimal digits.
type Float16 uint16

// Float16 constants for special values.
const (
	Float16Zero    Float16 = 0x0000
	Float16One     Float16 = 0x3C00
	Float16Half    Float16 = 0x3800
	Float16Max     Float16 = 0x7BFF // 65504
	Float16Inf     Float16 = 0x7C00
	Float16NegInf  Float16 = 0xFC00
	Float16NaN     Float16 = 0x7E00 // canonical quiet NaN
	float16SignBit         = 0x8000
)

// Float16ToFloat32 widens h to float32. The conversion is exact.
func Float16ToFloat32(h Float16) float32 {
	bits := uint32(h)
	sign := (bits & float16SignBit) << 16
	exp := int32(bits>>10) & 0x1F
	mant := bits & 0x3FF

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: shift the leading one into the implicit position.
		exp = 1
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3FF
	case 0x1F:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7FC00000 | mant<<13)
	}
	return math.Float32frombits(sign | uint32(exp+127-15)<<23 | mant<<13)
}

// Float32ToFloat16 narrows f to binary16 with round-to-nearest-even.
// Values beyond the finite range become infinities; values below half the
// smallest subnormal become signed zero.
func Float32ToFloat16(f float32) Float16 {
	bits := math.Float32bits(f)
	sign := (bits >> 16) & float16SignBit
	exp := int32(bits>>23) & 0xFF
	mant := bits & 0x7FFFFF

	if exp == 0xFF {
		if mant != 0 {
			return Float16(sign | 0x7E00 | mant>>13)
		}
		return Float16(sign | 0x7C00)
	}

	e := exp - 127 + 15
	if e >= 0x1F {
		return Float16(sign | 0x7C00)
	}
	if e <= 0 {
		if e < -10 {
			return Float16(sign)
		}
		full := mant | 0x800000
		shift := uint32(14 - e)
		res := full >> shift
		rem := full & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && res&1 == 1) {
			res++
		}
		return Float16(sign | res)
	}

	res := uint32(e)<<10 | mant>>13
	rem := mant & 0x1FFF
	if rem > 0x1000 || (rem == 0x1000 && res&1 == 1) {
		// A carry out of the mantissa bumps the exponent, and from the
		// largest finite value lands exactly on infinity.
		res++
	}
	return Float16(sign | res)
}

// NewFloat16 rounds f to the nearest Float16.
func NewFloat16(f float32) Float16 {
	return Float32ToFloat16(f)
}

// Float32 converts h to float32.
func (h Float16) Float32() float32 {
	return Float16ToFloat32(h)
}

// Float64 converts h to float64.
func (h Float16) Float64() float64 {
	return float64(Float16ToFloat32(h))
}

// IsNaN reports whether h is a NaN.
func (h Float16) IsNaN() bool {
	return h&0x7C00 == 0x7C00 && h&0x3FF != 0
}

// IsInf reports whether h is an infinity of either sign.
func (h Float16) IsInf() bool {
	return h&0x7FFF == 0x7C00
}
