package params

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// Patch is a partial update; nil fields are left unchanged. It is the wire
// shape for HTTP, WebSocket and RPC parameter updates.
type Patch struct {
	Resolution  *int            `json:"resolution,omitempty"`
	Brightness  *int            `json:"brightness,omitempty"`
	Contrast    *float64        `json:"contrast,omitempty"`
	Zoom        *float64        `json:"zoom,omitempty"`
	Invert      *bool           `json:"invert,omitempty"`
	CharSet     *charset.Name   `json:"charSet,omitempty"`
	PasteTarget *charset.Target `json:"pasteTarget,omitempty"`
}

// Apply returns p with the patch's non-nil fields applied. Enum names are
// normalised so "simple" and "SIMPLE" are equivalent.
func (pt Patch) Apply(p Params) Params {
	if pt.Resolution != nil {
		p.Resolution = *pt.Resolution
	}
	if pt.Brightness != nil {
		p.Brightness = *pt.Brightness
	}
	if pt.Contrast != nil {
		p.Contrast = *pt.Contrast
	}
	if pt.Zoom != nil {
		p.Zoom = *pt.Zoom
	}
	if pt.Invert != nil {
		p.Invert = *pt.Invert
	}
	if pt.CharSet != nil {
		p.CharSet = *pt.CharSet
		if n, ok := charset.Parse(string(*pt.CharSet)); ok {
			p.CharSet = n
		}
	}
	if pt.PasteTarget != nil {
		p.PasteTarget = *pt.PasteTarget
		if t, ok := charset.ParseTarget(string(*pt.PasteTarget)); ok {
			p.PasteTarget = t
		}
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (pt Patch) Empty() bool {
	return pt == Patch{}
}

// DecodePatch parses a JSON patch.
func DecodePatch(data []byte) (Patch, error) {
	var pt Patch
	if err := json.Unmarshal(data, &pt); err != nil {
		return Patch{}, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "malformed parameter patch")
	}
	return pt, nil
}

// PatchFromValues parses query-string style values. Unknown keys are ignored.
func PatchFromValues(v url.Values) (Patch, error) {
	var pt Patch
	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		raw := vals[0]
		var err error
		switch key {
		case "resolution":
			var n int
			if n, err = strconv.Atoi(raw); err == nil {
				pt.Resolution = &n
			}
		case "brightness":
			var n int
			if n, err = strconv.Atoi(raw); err == nil {
				pt.Brightness = &n
			}
		case "contrast":
			var f float64
			if f, err = strconv.ParseFloat(raw, 64); err == nil {
				pt.Contrast = &f
			}
		case "zoom":
			var f float64
			if f, err = strconv.ParseFloat(raw, 64); err == nil {
				pt.Zoom = &f
			}
		case "invert":
			var b bool
			if b, err = strconv.ParseBool(raw); err == nil {
				pt.Invert = &b
			}
		case "charSet", "charset":
			n := charset.Name(raw)
			pt.CharSet = &n
		case "pasteTarget", "target":
			t := charset.Target(raw)
			pt.PasteTarget = &t
		}
		if err != nil {
			return Patch{}, apperrors.Wrapf(err, apperrors.CodeInvalidArgument, "bad value for %s", key).
				WithMetadata("field", key)
		}
	}
	return pt, nil
}
