package engine

import (
	"math"

	"github.com/GriffinCanCode/asciicam/internal/params"
)

// ContrastFactor returns the linear stretch factor for contrast c.
func ContrastFactor(c float64) float64 {
	return 259 * (c*255 + 255) / (255 * (259 - c*255))
}

// Stretch applies the contrast factor around the 128 midpoint. The result is
// deliberately left unclamped.
func Stretch(factor, v float64) float64 {
	return factor*(v-128) + 128
}

// Luminance returns the BT.709 weighted sum of r, g, b.
func Luminance(r, g, b float64) float64 {
	return LumaR*r + LumaG*g + LumaB*b
}

// Tone maps a sampled pixel to a luminance in [0, 255].
type Tone struct {
	stretch    bool
	factor     float64
	brightness float64
	invert     bool
}

// NewTone precomputes the tone curve for p. A neutral contrast skips the
// stretch entirely.
func NewTone(p params.Params) Tone {
	t := Tone{
		brightness: float64(p.Brightness),
		invert:     p.Invert,
	}
	if p.Contrast != params.NeutralContrast {
		t.stretch = true
		t.factor = ContrastFactor(p.Contrast)
	}
	return t
}

// Luma runs the tone pipeline: stretch, luminance, brightness, invert, clamp.
func (t Tone) Luma(r, g, b uint8) float64 {
	rf, gf, bf := float64(r), float64(g), float64(b)
	if t.stretch {
		rf = Stretch(t.factor, rf)
		gf = Stretch(t.factor, gf)
		bf = Stretch(t.factor, bf)
	}
	return t.Adjust(Luminance(rf, gf, bf))
}

// Adjust applies brightness, inversion and clamping to a luminance.
func (t Tone) Adjust(y float64) float64 {
	y += t.brightness
	if t.invert {
		y = 255 - y
	}
	return math.Max(0, math.Min(255, y))
}

// Index maps a luminance in [0, 255] onto a ramp of n characters.
func Index(y float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(y / 255 * float64(n-1)))
	return min(max(i, 0), n-1)
}
