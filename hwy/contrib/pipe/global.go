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

package pipe

import "fmt"

// Global is a view of a global (shared) buffer: a base slice plus the
// [offset, offset+length) range one lane is allowed to touch. Lanes receive
// disjoint views of the output at launch, so no two lanes can write the
// same element.
type Global[T any] struct {
	base   []T
	offset int
	length int
}

// NewGlobal returns a view of all of buf.
func NewGlobal[T any](buf []T) Global[T] {
	return Global[T]{base: buf, length: len(buf)}
}

// View returns the sub-view [offset, offset+length) of g, relative to g.
func (g Global[T]) View(offset, length int) Global[T] {
	if offset < 0 || length < 0 || offset+length > g.length {
		panic(fmt.Sprintf("pipe: view [%d, %d) outside global range of length %d", offset, offset+length, g.length))
	}
	return Global[T]{base: g.base, offset: g.offset + offset, length: length}
}

// Offset returns the view's start within the base buffer.
func (g Global[T]) Offset() int { return g.offset }

// Len returns the number of elements in the view.
func (g Global[T]) Len() int { return g.length }

// Slice returns the elements of the view.
func (g Global[T]) Slice() []T {
	return g.base[g.offset : g.offset+g.length]
}
