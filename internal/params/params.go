package params

import (
	"math"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// Params is one immutable snapshot of the transform parameters.
type Params struct {
	Resolution  int            `json:"resolution"`
	Brightness  int            `json:"brightness"`
	Contrast    float64        `json:"contrast"`
	Zoom        float64        `json:"zoom"`
	Invert      bool           `json:"invert"`
	CharSet     charset.Name   `json:"charSet"`
	PasteTarget charset.Target `json:"pasteTarget"`
}

// Default returns the start-up parameter set.
func Default() Params {
	return Params{
		Resolution:  DefaultResolution,
		Brightness:  DefaultBrightness,
		Contrast:    DefaultContrast,
		Zoom:        DefaultZoom,
		CharSet:     charset.Standard,
		PasteTarget: charset.Dark,
	}
}

// Validate rejects any value outside its documented domain.
func Validate(p Params) error {
	switch {
	case p.Resolution < MinResolution || p.Resolution > MaxResolution:
		return invalid("resolution", "resolution %d outside [%d,%d]", p.Resolution, MinResolution, MaxResolution)
	case p.Brightness < MinBrightness || p.Brightness > MaxBrightness:
		return invalid("brightness", "brightness %d outside [%d,%d]", p.Brightness, MinBrightness, MaxBrightness)
	case math.IsNaN(p.Contrast) || p.Contrast < MinContrast || p.Contrast > MaxContrast:
		return invalid("contrast", "contrast %g outside [%g,%g]", p.Contrast, MinContrast, MaxContrast)
	case math.Abs(p.Contrast-SingularContrast) < ContrastEpsilon:
		return invalid("contrast", "contrast %g is too close to the singular value %g", p.Contrast, SingularContrast)
	case math.IsNaN(p.Zoom) || p.Zoom < MinZoom || p.Zoom > MaxZoom:
		return invalid("zoom", "zoom %g outside [%g,%g]", p.Zoom, MinZoom, MaxZoom)
	case !p.CharSet.Valid():
		return invalid("charSet", "unknown character set %q", p.CharSet)
	case !p.PasteTarget.Valid():
		return invalid("pasteTarget", "unknown paste target %q", p.PasteTarget)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return apperrors.Newf(apperrors.CodeInvalidArgument, format, args...).WithMetadata("field", field)
}

// Clamp pulls every value into its domain, the way a slider would. Unknown
// enums fall back to the defaults and a contrast at the singular point is
// nudged towards neutral.
func Clamp(p Params) Params {
	p.Resolution = min(max(p.Resolution, MinResolution), MaxResolution)
	p.Brightness = min(max(p.Brightness, MinBrightness), MaxBrightness)

	if math.IsNaN(p.Contrast) {
		p.Contrast = DefaultContrast
	}
	p.Contrast = math.Min(math.Max(p.Contrast, MinContrast), MaxContrast)
	if math.Abs(p.Contrast-SingularContrast) < ContrastEpsilon {
		p.Contrast = SingularContrast - 2*ContrastEpsilon
	}

	if math.IsNaN(p.Zoom) {
		p.Zoom = DefaultZoom
	}
	p.Zoom = math.Min(math.Max(p.Zoom, MinZoom), MaxZoom)

	if !p.CharSet.Valid() {
		p.CharSet = charset.Standard
	}
	if !p.PasteTarget.Valid() {
		p.PasteTarget = charset.Dark
	}
	return p
}
