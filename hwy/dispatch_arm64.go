package hwy

import "golang.org/x/sys/cpu"

func init() {
	hasNativeBF16 = hasBF16Darwin

	// Check for HWY_NO_SIMD environment variable first
	if NoSimdEnv() {
		setScalarMode()
		return
	}

	// FPHP covers scalar half-precision arithmetic and ASIMDHP the vector
	// form; both are needed before Float16 can skip promotion.
	if cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP || hasFP16Darwin {
		currentLevel = DispatchNativeF16
		hasNativeF16 = true
		return
	}
	setScalarMode()
}
