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

import (
	"fmt"

	"github.com/ajroetker/go-tiling/hwy"
)

// PaddingValue fills the right padding of every block staged by CopyIn.
// Padded elements are computed on but never copied back out.
const PaddingValue = 1

// CopyParams describes a strided block transfer. Pitches are the element
// distance between the starts of consecutive blocks. A contiguous transfer
// is a single block.
type CopyParams struct {
	BlockCount int
	BlockLen   int
	SrcPitch   int
	DstPitch   int
	// RightPad is the number of elements after each destination block
	// that CopyIn fills with PaddingValue. CopyOut ignores it.
	RightPad int
}

// Contiguous describes a transfer of n consecutive elements.
func Contiguous(n int) CopyParams {
	return CopyParams{BlockCount: 1, BlockLen: n, SrcPitch: n, DstPitch: n}
}

func (cp CopyParams) srcExtent() int {
	if cp.BlockCount == 0 {
		return 0
	}
	return (cp.BlockCount-1)*cp.SrcPitch + cp.BlockLen
}

func (cp CopyParams) dstExtent(pad int) int {
	if cp.BlockCount == 0 {
		return 0
	}
	return (cp.BlockCount-1)*cp.DstPitch + cp.BlockLen + pad
}

func (cp CopyParams) check(src, dst, pad int) {
	if cp.BlockCount < 0 || cp.BlockLen < 0 || pad < 0 ||
		cp.BlockCount > 1 && (cp.SrcPitch < cp.BlockLen || cp.DstPitch < cp.BlockLen+pad) {
		panic(fmt.Sprintf("pipe: malformed transfer %+v", cp))
	}
	if cp.srcExtent() > src || cp.dstExtent(pad) > dst {
		panic(fmt.Sprintf("pipe: transfer %+v overruns source of %d or destination of %d elements", cp, src, dst))
	}
}

// CopyIn transfers cp.BlockCount blocks from src, starting at element
// offset of the view, into local memory dst and pads each block on the
// right. It returns the number of elements read from src.
func CopyIn[T hwy.Storage](dst []T, src Global[T], offset int, cp CopyParams) int {
	g := src.Slice()
	if offset < 0 || offset > len(g) {
		panic(fmt.Sprintf("pipe: CopyIn offset %d outside view of length %d", offset, len(g)))
	}
	g = g[offset:]
	cp.check(len(g), len(dst), cp.RightPad)

	pad := hwy.FromFloat64[T](PaddingValue)
	for b := range cp.BlockCount {
		s := g[b*cp.SrcPitch : b*cp.SrcPitch+cp.BlockLen]
		d := dst[b*cp.DstPitch : b*cp.DstPitch+cp.BlockLen+cp.RightPad]
		copy(d, s)
		for i := cp.BlockLen; i < len(d); i++ {
			d[i] = pad
		}
	}
	return cp.BlockCount * cp.BlockLen
}

// CopyOut transfers cp.BlockCount blocks from local memory src into dst,
// starting at element offset of the view. Only BlockLen elements of each
// block are written, so padding in src never reaches dst. It returns the
// number of elements written.
func CopyOut[T hwy.Storage](dst Global[T], offset int, src []T, cp CopyParams) int {
	g := dst.Slice()
	if offset < 0 || offset > len(g) {
		panic(fmt.Sprintf("pipe: CopyOut offset %d outside view of length %d", offset, len(g)))
	}
	g = g[offset:]
	cp.check(len(src), len(g), 0)

	for b := range cp.BlockCount {
		copy(g[b*cp.DstPitch:b*cp.DstPitch+cp.BlockLen], src[b*cp.SrcPitch:b*cp.SrcPitch+cp.BlockLen])
	}
	return cp.BlockCount * cp.BlockLen
}
