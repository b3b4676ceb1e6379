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

// Command glurun plans, runs and checks tiled GLU launches.
//
// Usage:
//
//	glurun plan  --rows 64 --cols 5000 --dtype bfloat16
//	glurun run   --rows 64 --cols 5000 --dtype bfloat16 --depth 1
//	glurun sweep --max-rows 32 --max-cols 300 --dtype all
//
// The platform (lane count, local memory, transfer block) defaults to the
// HWY_CORE_NUM, HWY_UB_SIZE, HWY_BLOCK_BYTES and HWY_BURST_BYTES
// environment variables and can be overridden with flags.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
