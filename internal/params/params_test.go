package params

import (
	"math"
	"net/url"
	"testing"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	if err := Validate(p); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	if p.Resolution != 3 || p.Contrast != 1 || p.Zoom != 1 || p.CharSet != charset.Standard {
		t.Errorf("Default() = %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*Params)
		field string
	}{
		{"resolution low", func(p *Params) { p.Resolution = 1 }, "resolution"},
		{"resolution high", func(p *Params) { p.Resolution = 13 }, "resolution"},
		{"brightness", func(p *Params) { p.Brightness = 101 }, "brightness"},
		{"contrast negative", func(p *Params) { p.Contrast = -0.1 }, "contrast"},
		{"contrast singular", func(p *Params) { p.Contrast = SingularContrast }, "contrast"},
		{"contrast NaN", func(p *Params) { p.Contrast = math.NaN() }, "contrast"},
		{"zoom", func(p *Params) { p.Zoom = 0.5 }, "zoom"},
		{"charset", func(p *Params) { p.CharSet = "EMOJI" }, "charSet"},
		{"target", func(p *Params) { p.PasteTarget = "SEPIA" }, "pasteTarget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mut(&p)
			err := Validate(p)
			if !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
				t.Fatalf("Validate() = %v, want INVALID_ARGUMENT", err)
			}
			if got := err.(*apperrors.AppError).Metadata["field"]; got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}
}

func TestValidateBoundaries(t *testing.T) {
	p := Params{
		Resolution: MaxResolution, Brightness: MinBrightness, Contrast: MaxContrast,
		Zoom: MaxZoom, CharSet: charset.Dots, PasteTarget: charset.Light,
	}
	if err := Validate(p); err != nil {
		t.Errorf("Validate(boundaries) = %v", err)
	}
	p.Contrast = 0
	if err := Validate(p); err != nil {
		t.Errorf("Validate(contrast 0) = %v", err)
	}
}

func TestClamp(t *testing.T) {
	p := Clamp(Params{
		Resolution: 40, Brightness: -300, Contrast: 9, Zoom: 0,
		CharSet: "nope", PasteTarget: "nope",
	})

	want := Params{
		Resolution: MaxResolution, Brightness: MinBrightness, Contrast: MaxContrast,
		Zoom: MinZoom, CharSet: charset.Standard, PasteTarget: charset.Dark,
	}
	if p != want {
		t.Errorf("Clamp() = %+v, want %+v", p, want)
	}
	if err := Validate(p); err != nil {
		t.Errorf("clamped params should validate: %v", err)
	}
}

func TestClampNudgesSingularContrast(t *testing.T) {
	tests := []struct {
		name     string
		contrast float64
	}{
		{"singular", SingularContrast},
		{"just below", SingularContrast - ContrastEpsilon/2},
		{"just above", SingularContrast + ContrastEpsilon/2},
		{"edge of band", math.Nextafter(SingularContrast-ContrastEpsilon, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			p.Contrast = tt.contrast
			c := Clamp(p).Contrast

			if d := 259 - c*255; math.Abs(d) < 0.1 {
				t.Errorf("denominator %g still near zero after Clamp", d)
			}
			if err := Validate(Clamp(p)); err != nil {
				t.Errorf("Validate(Clamp(%v)) = %v", tt.contrast, err)
			}
		})
	}
}

func TestStoreNearSingularContrastRenders(t *testing.T) {
	s := NewStore(Default())
	got := s.Update(func(p *Params) { p.Contrast = SingularContrast })
	if err := Validate(got); err != nil {
		t.Errorf("stored params fail validation: %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	res := 6
	name := charset.Name("blocks")
	target := charset.Target("light")
	pt := Patch{Resolution: &res, CharSet: &name, PasteTarget: &target}

	p := pt.Apply(Default())
	if p.Resolution != 6 || p.CharSet != charset.Blocks || p.PasteTarget != charset.Light {
		t.Errorf("Apply() = %+v", p)
	}
	if p.Zoom != DefaultZoom {
		t.Error("untouched field changed")
	}
	if !(Patch{}).Empty() || pt.Empty() {
		t.Error("Empty() mismatch")
	}
}

func TestDecodePatch(t *testing.T) {
	pt, err := DecodePatch([]byte(`{"zoom":2.5,"invert":true}`))
	if err != nil {
		t.Fatalf("DecodePatch() error = %v", err)
	}
	if *pt.Zoom != 2.5 || !*pt.Invert || pt.Resolution != nil {
		t.Errorf("DecodePatch() = %+v", pt)
	}

	if _, err := DecodePatch([]byte(`{"zoom":`)); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("malformed patch error = %v", err)
	}
}

func TestPatchFromValues(t *testing.T) {
	pt, err := PatchFromValues(url.Values{
		"resolution": {"4"}, "contrast": {"1.5"}, "invert": {"true"},
		"charset": {"dots"}, "target": {"LIGHT"}, "ignored": {"x"},
	})
	if err != nil {
		t.Fatalf("PatchFromValues() error = %v", err)
	}
	p := pt.Apply(Default())
	if p.Resolution != 4 || p.Contrast != 1.5 || !p.Invert || p.CharSet != charset.Dots || p.PasteTarget != charset.Light {
		t.Errorf("applied = %+v", p)
	}

	if _, err := PatchFromValues(url.Values{"zoom": {"big"}}); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("bad zoom error = %v", err)
	}
}
