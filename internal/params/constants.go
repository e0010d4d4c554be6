// Package params holds the tunable parameter set and its validating store.
package params

// Parameter domains.
const (
	MinResolution = 2
	MaxResolution = 12

	MinBrightness = -100
	MaxBrightness = 100

	MinContrast     = 0.0
	MaxContrast     = 2.0
	NeutralContrast = 1.0

	MinZoom = 1.0
	MaxZoom = 4.0

	// SingularContrast makes the stretch denominator 259-c*255 vanish.
	SingularContrast = 259.0 / 255.0
	// ContrastEpsilon is the closest a contrast may get to SingularContrast.
	ContrastEpsilon = 1e-3
)

// Defaults.
const (
	DefaultResolution = 3
	DefaultBrightness = 0
	DefaultContrast   = NeutralContrast
	DefaultZoom       = 1.0
)
