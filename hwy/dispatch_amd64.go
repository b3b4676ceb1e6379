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

import "golang.org/x/sys/cpu"

func init() {
	// bf16 dot products are reported even under HWY_NO_SIMD; they never
	// change the compute path.
	if cpu.X86.HasAVX512 {
		hasNativeBF16 = cpu.X86.HasAVX512BF16
	}

	// AVX-512 FP16 is not exposed by x/sys/cpu yet, so amd64 always
	// promotes Float16 to float32.
	setScalarMode()
}
