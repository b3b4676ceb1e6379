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

package glu

import (
	"github.com/ajroetker/go-tiling/hwy"
	"github.com/ajroetker/go-tiling/hwy/contrib/math"
	"github.com/ajroetker/go-tiling/hwy/contrib/pipe"
)

// Path is the arithmetic used by the compute stage for a storage type.
type Path uint8

const (
	// PathDirect computes in the storage type.
	PathDirect Path = iota
	// PathPromote widens to float32, computes there and rounds the result
	// back to the storage type once, to nearest even.
	PathPromote
)

func (p Path) String() string {
	if p == PathPromote {
		return "promote"
	}
	return "direct"
}

// PathFor returns the compute path used for T on this CPU. BFloat16 is
// always promoted. Float16 is computed directly only with native
// half-precision arithmetic.
func PathFor[T hwy.Storage]() Path {
	var zero T
	switch any(zero).(type) {
	case hwy.BFloat16:
		return PathPromote
	case hwy.Float16:
		if hwy.HasNativeFloat16() {
			return PathDirect
		}
		return PathPromote
	default:
		return PathDirect
	}
}

// compute is the per-lane compute stage and its scratch buffers. sig is the
// sigmoid working set of the direct path. The promote path computes in
// separate float32 buffers for a, b and sigmoid(b) and never touches sig.
// sig is reserved on both paths, matching Plan.LocalBytesAt.
type compute[T hwy.Storage] struct {
	path       Path
	sig        []T
	wa, wb, ws []float32
}

func newCompute[T hwy.Storage](p *pipe.Pipe, elems int) *compute[T] {
	c := &compute[T]{
		path: PathFor[T](),
		sig:  pipe.InitBuf[T](p, elems),
	}
	if hwy.IsNarrow[T]() {
		c.wa = pipe.InitBuf[float32](p, elems)
		c.wb = pipe.InitBuf[float32](p, elems)
		c.ws = pipe.InitBuf[float32](p, elems)
	}
	return c
}

// glu writes sigmoid(b[i]) * a[i] to dst[i] for every element of dst.
func (c *compute[T]) glu(dst, a, b []T) {
	n := len(dst)
	if c.path == PathPromote {
		c.promoted(dst, a[:n], b[:n])
		return
	}
	switch d := any(dst).(type) {
	case []float32:
		gluFloat(d, any(a).([]float32)[:n], any(b).([]float32)[:n], any(c.sig).([]float32)[:n])
	case []float64:
		gluFloat(d, any(a).([]float64)[:n], any(b).([]float64)[:n], any(c.sig).([]float64)[:n])
	case []hwy.Float16:
		gluFloat16(d, any(a).([]hwy.Float16)[:n], any(b).([]hwy.Float16)[:n], any(c.sig).([]hwy.Float16)[:n])
	default:
		c.promoted(dst, a[:n], b[:n])
	}
}

func gluFloat[F hwy.Floats](dst, a, b, sig []F) {
	math.Sigmoid(sig, b)
	for i := range dst {
		dst[i] = sig[i] * a[i]
	}
}

// gluFloat16 rounds after every operation, as half-precision hardware does.
func gluFloat16(dst, a, b, sig []hwy.Float16) {
	math.SigmoidFloat16(sig, b)
	for i := range dst {
		dst[i] = hwy.Float32ToFloat16(sig[i].Float32() * a[i].Float32())
	}
}

func (c *compute[T]) promoted(dst, a, b []T) {
	n := len(dst)
	wa, wb, ws := c.wa[:n], c.wb[:n], c.ws[:n]
	hwy.PromoteToFloat32(wa, a)
	hwy.PromoteToFloat32(wb, b)
	math.Sigmoid(ws, wb)
	for i := range wa {
		wa[i] *= ws[i]
	}
	hwy.DemoteFromFloat32(dst, wa)
}
