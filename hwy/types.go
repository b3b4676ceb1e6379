// Package hwy provides the element types, conversions and CPU feature
// dispatch shared by the lane kernels in this module.
//
// Kernels store tensors in one of four element types: float32, float64,
// and the two 16-bit formats Float16 (IEEE binary16) and BFloat16. The
// 16-bit formats are plain uint16 bit patterns; arithmetic on them goes
// through float32 (see PromoteToFloat32 and DemoteFromFloat32) unless the
// CPU reports native half-precision support.
//
// Basic usage:
//
//	import "github.com/ajroetker/go-tiling/hwy"
//
//	wide := make([]float32, len(src))
//	hwy.PromoteToFloat32(wide, src)
//	// ... compute in float32 ...
//	hwy.DemoteFromFloat32(dst, wide)
package hwy

import "unsafe"

// Floats is a constraint for the native floating-point types.
type Floats interface {
	~float32 | ~float64
}

// Storage is the set of element types a kernel can keep in global or local
// buffers. The 16-bit types are listed without ~ so that a type switch on a
// Storage value always lands on one of the four cases.
type Storage interface {
	float32 | float64 | Float16 | BFloat16
}

// SizeOf returns the size in bytes of one element of type T.
func SizeOf[T Storage]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// IsNarrow reports whether T is one of the 16-bit float formats.
func IsNarrow[T Storage]() bool {
	return SizeOf[T]() == 2
}
