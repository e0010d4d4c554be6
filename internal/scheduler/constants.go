// Package scheduler drives the transform engine: it owns the render
// surfaces, paces a live source and publishes each rendered frame.
package scheduler

const (
	// DefaultRefreshRate is the live tick rate in Hz.
	DefaultRefreshRate = 30.0

	// DefaultMaxHashDistance is the perceptual hash distance at or below
	// which a frame counts as unchanged. Zero skips only identical hashes.
	DefaultMaxHashDistance = 0

	// MeanLumaTolerance is how far the mean luminance of a frame may drift
	// from the last rendered one before the frame is rendered again.
	MeanLumaTolerance = 0.5

	// Buffer sizes for notice and output subscribers.
	noticeBuffer = 16
	outputBuffer = 1

	// oneshotIdle is how many idle surface sets a Oneshot keeps.
	oneshotIdle = 4
)

// Notice levels.
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)
