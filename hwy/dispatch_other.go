//go:build !amd64 && !arm64

package hwy

func init() {
	// Other architectures have no detection yet; 16-bit math is promoted.
	setScalarMode()
}
