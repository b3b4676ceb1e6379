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

//go:build darwin && arm64

package hwy

import "syscall"

// x/sys/cpu does not read the half-precision features on macOS, so they
// are queried through sysctl. FEAT_FP16 is present on every Apple
// silicon core; FEAT_BF16 on M2 and later.
var (
	hasFP16Darwin = sysctlFeature("hw.optional.arm.FEAT_FP16")
	hasBF16Darwin = sysctlFeature("hw.optional.arm.FEAT_BF16")
)

func sysctlFeature(name string) bool {
	val, err := syscall.Sysctl(name)
	if err != nil {
		return false
	}
	return len(val) > 0 && val[0] == 1
}
