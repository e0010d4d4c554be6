package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestPixelRect(t *testing.T) {
	tests := []struct {
		in   engine.Rect
		want image.Rectangle
	}{
		{engine.Rect{X: 50, Y: 50, W: 100, H: 100}, image.Rect(50, 50, 150, 150)},
		{engine.Rect{X: 0.4, Y: 0.6, W: 10.2, H: 9.8}, image.Rect(0, 1, 11, 10)},
		{engine.Rect{W: 640, H: 480}, image.Rect(0, 0, 640, 480)},
	}
	for _, tt := range tests {
		if got := PixelRect(tt.in); got != tt.want {
			t.Errorf("PixelRect(%+v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestScratch_BoxAverages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			src.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}

	s := NewScratch(FilterBox)
	s.Resize(2, 2)
	s.DrawScaled(src, engine.Rect{W: 4, H: 4})
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b := s.RGB(x, y)
			if !near(r, 128) || r != g || g != b {
				t.Errorf("cell (%d,%d) = %d,%d,%d; want ~128 grey", x, y, r, g, b)
			}
		}
	}
}

func TestScratch_Uniform(t *testing.T) {
	for _, f := range []Filter{FilterBox, FilterBilinear, FilterCatmullRom, FilterNearest} {
		t.Run(string(f), func(t *testing.T) {
			s := NewScratch(f)
			s.Resize(5, 3)
			s.DrawScaled(uniform(40, 40, color.RGBA{100, 150, 200, 255}), engine.Rect{W: 40, H: 40})
			r, g, b := s.RGB(4, 2)
			if !near(r, 100) || !near(g, 150) || !near(b, 200) {
				t.Errorf("got %d,%d,%d", r, g, b)
			}
		})
	}
}

func TestScratch_CropOnly(t *testing.T) {
	src := uniform(200, 200, color.RGBA{A: 255})
	// Bright centre, dark border.
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	s := NewScratch(FilterBox)
	s.Resize(4, 4)
	s.DrawScaled(src, engine.CropRect(200, 200, 2))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if r, _, _ := s.RGB(x, y); r != 255 {
				t.Fatalf("cell (%d,%d) = %d; crop leaked border pixels", x, y, r)
			}
		}
	}
}

func TestScratch_ResizeReuses(t *testing.T) {
	s := NewScratch(FilterBox)
	s.Resize(3, 2)
	first := s.Image()
	s.Resize(3, 2)
	if s.Image() != first {
		t.Error("same size should reuse the buffer")
	}
	s.Resize(4, 2)
	if s.Image().Rect.Dx() != 4 {
		t.Error("resize did not grow the buffer")
	}
}

func TestParseFilter(t *testing.T) {
	tests := map[string]Filter{
		"":           FilterBox,
		"BOX":        FilterBox,
		"bilinear":   FilterBilinear,
		" nearest ":  FilterNearest,
		"CatmullRom": FilterCatmullRom,
		"lanczos":    FilterBox,
	}
	for in, want := range tests {
		if got := ParseFilter(in); got != want {
			t.Errorf("ParseFilter(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestCanvas_ResetAndDraw(t *testing.T) {
	c, err := NewCanvas()
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	defer c.Close()

	c.Reset(40, 30, 12)
	if got := c.Image().Bounds(); got != image.Rect(0, 0, 40, 30) {
		t.Fatalf("bounds = %v", got)
	}
	if c.Image().RGBAAt(5, 5) != Background {
		t.Error("canvas not cleared to the background")
	}

	c.DrawGlyph(' ', 20, 0)
	if inked(c.Image()) {
		t.Error("space should draw nothing")
	}
	c.DrawGlyph('@', 20, 0)
	if !inked(c.Image()) {
		t.Error("'@' drew nothing")
	}

	c.Reset(40, 30, 12)
	if inked(c.Image()) {
		t.Error("reset did not clear previous glyphs")
	}
}

func inked(img *image.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != Background {
				return true
			}
		}
	}
	return false
}

func TestCanvas_EncodePNG(t *testing.T) {
	c, err := NewCanvas()
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("empty canvas: got %v; want NotFound", err)
	}

	c.Reset(16, 8, 4)
	buf.Reset()
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("decoded size %v", img.Bounds())
	}
}

func TestCanvas_Snapshot(t *testing.T) {
	c, err := NewCanvas()
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	c.Reset(8, 8, 4)
	snap := c.Snapshot()
	c.DrawGlyph('#', 4, 0)
	if inked(snap) {
		t.Error("snapshot shares pixels with the canvas")
	}
}
