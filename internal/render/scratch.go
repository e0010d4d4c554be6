package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/GriffinCanCode/asciicam/internal/engine"
)

// Scratch is the small off-screen surface the crop is resampled into.
type Scratch struct {
	img    *image.RGBA
	scaler draw.Scaler
}

var _ engine.Scratch = (*Scratch)(nil)

// NewScratch creates a scratch surface using filter f.
func NewScratch(f Filter) *Scratch {
	return &Scratch{scaler: f.Scaler()}
}

// Resize sets the surface size, reusing the buffer when it already fits.
func (s *Scratch) Resize(cols, rows int) {
	if s.img != nil && s.img.Rect.Dx() == cols && s.img.Rect.Dy() == rows {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, cols, rows))
}

// DrawScaled resamples crop (in src's own coordinates relative to its
// bounds' origin) onto the whole surface. Fractional crop edges are rounded
// to the nearest pixel.
func (s *Scratch) DrawScaled(src image.Image, crop engine.Rect) {
	if s.img == nil || s.img.Rect.Empty() {
		return
	}
	sr := PixelRect(crop).Add(src.Bounds().Min).Intersect(src.Bounds())
	if sr.Empty() {
		return
	}
	s.scaler.Scale(s.img, s.img.Bounds(), src, sr, draw.Src, nil)
}

// RGB returns the sampled pixel at (x, y).
func (s *Scratch) RGB(x, y int) (r, g, b uint8) {
	c := s.img.RGBAAt(x, y)
	return c.R, c.G, c.B
}

// Image exposes the sampled surface.
func (s *Scratch) Image() *image.RGBA {
	return s.img
}

// PixelRect rounds a fractional crop to whole pixels.
func PixelRect(r engine.Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	return image.Rect(x0, y0, x1, y1)
}
