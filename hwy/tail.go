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

// AlignUp rounds size up to the next multiple of quantum.
// A quantum <= 0 leaves size unchanged.
func AlignUp(size, quantum int) int {
	if quantum <= 0 {
		return size
	}
	return (size + quantum - 1) / quantum * quantum
}

// AlignDown rounds size down to a multiple of quantum.
// A quantum <= 0 leaves size unchanged.
func AlignDown(size, quantum int) int {
	if quantum <= 0 {
		return size
	}
	return size / quantum * quantum
}

// IsAligned reports whether size is a multiple of quantum.
func IsAligned(size, quantum int) bool {
	return quantum <= 0 || size%quantum == 0
}

// CeilDiv returns ceil(a / b) for a >= 0 and b > 0.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// TailPadding returns how many elements must follow a block of size
// elements so that the block ends on a quantum boundary.
//
// Example:
//
//	blk := 32 / hwy.SizeOf[hwy.BFloat16]() // 16 elements per transfer block
//	hwy.TailPadding(20, blk)               // 12
func TailPadding(size, quantum int) int {
	return AlignUp(size, quantum) - size
}

// BlockElems returns how many elements of type T fit in blockBytes.
func BlockElems[T Storage](blockBytes int) int {
	return blockBytes / SizeOf[T]()
}
