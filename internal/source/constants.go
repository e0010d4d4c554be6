// Package source provides the frames the transform engine consumes: still
// images decoded from disk or uploads, and live screen or camera feeds.
package source

// Source kinds.
const (
	KindScreen = "screen"
	KindCamera = "camera"
	KindStill  = "still"
)

// Decode limits.
const (
	MaxImageBytes = 32 << 20
	MaxPixels     = 64 << 20
)
