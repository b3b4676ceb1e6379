package hwy

import (
	"os"
	"strconv"
)

// DispatchLevel describes which arithmetic path 16-bit floats take.
type DispatchLevel int

const (
	// DispatchScalar means 16-bit values are promoted to float32 for every
	// operation.
	DispatchScalar DispatchLevel = iota

	// DispatchNativeF16 means the CPU has native binary16 arithmetic, so
	// Float16 kernels may compute in half precision directly.
	DispatchNativeF16
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchNativeF16:
		return "native-f16"
	default:
		return "unknown"
	}
}

// currentLevel is set by init() in dispatch_*.go files.
var currentLevel DispatchLevel

// hasNativeF16 and hasNativeBF16 are set by init() in dispatch_*.go files.
var (
	hasNativeF16  bool
	hasNativeBF16 bool
)

// CurrentLevel returns the detected dispatch level.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// HasNativeFloat16 reports whether the CPU provides native binary16
// arithmetic accurate enough to evaluate transcendentals without
// promotion. Always false when HWY_NO_SIMD is set.
func HasNativeFloat16() bool {
	return hasNativeF16
}

// HasNativeBFloat16 reports whether the CPU has bfloat16 dot-product
// instructions. These never cover transcendentals, so BFloat16 kernels
// promote to float32 regardless; the flag is informational.
func HasNativeBFloat16() bool {
	return hasNativeBF16
}

// NoSimdEnv checks if the HWY_NO_SIMD environment variable is set.
// When set, all 16-bit math is promoted to float32 regardless of CPU
// capabilities. This is useful for testing and debugging.
func NoSimdEnv() bool {
	val := os.Getenv("HWY_NO_SIMD")
	if val == "" {
		return false
	}
	// Any non-empty value is considered true, but also parse as bool
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

func setScalarMode() {
	currentLevel = DispatchScalar
	hasNativeF16 = false
}
