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

// Package math provides the slice-level transcendental functions used by
// the lane kernels.
//
// # Precision paths
//
// Native float types compute directly:
//   - Sigmoid[T Floats](dst, src []T) - 1/(1+e^-x) in the precision of T
//
// Half precision has a native form:
//   - SigmoidFloat16(dst, src []hwy.Float16) - the result of each element
//     is rounded to binary16. Only used when hwy.HasNativeFloat16 reports
//     hardware support.
//
// Otherwise 16-bit inputs are promoted with hwy.PromoteToFloat32, evaluated
// with Sigmoid[float32] and demoted once at the end of the caller's
// computation. BFloat16 always takes that path: its 7-bit mantissa loses
// too much precision to evaluate exp directly.
package math
