//go:build !(darwin && arm64)

package hwy

const (
	hasFP16Darwin = false
	hasBF16Darwin = false
)
