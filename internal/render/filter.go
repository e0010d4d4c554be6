package render

import (
	"strings"

	"golang.org/x/image/draw"
)

// Filter names a resampling strategy for the scratch downscale.
type Filter string

const (
	FilterBox        Filter = "box"
	FilterBilinear   Filter = "bilinear"
	FilterCatmullRom Filter = "catmullrom"
	FilterNearest    Filter = "nearest"
)

// Box is a unit box kernel. x/image widens kernels by the scale factor when
// shrinking, so each destination pixel becomes the mean of the source pixels
// it covers. The half-open interval keeps exactly one tap when enlarging.
var Box = &draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		if t >= -0.5 && t < 0.5 {
			return 1
		}
		return 0
	},
}

// ParseFilter resolves a filter name; unknown names get the box filter.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterBilinear, FilterCatmullRom, FilterNearest:
		return f
	default:
		return FilterBox
	}
}

// Scaler returns the x/image scaler for f.
func (f Filter) Scaler() draw.Scaler {
	switch f {
	case FilterBilinear:
		return draw.BiLinear
	case FilterCatmullRom:
		return draw.CatmullRom
	case FilterNearest:
		return draw.NearestNeighbor
	default:
		return Box
	}
}
