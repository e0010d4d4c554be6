package render

import (
	"image"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

var (
	monoOnce sync.Once
	monoFont *sfnt.Font
	monoErr  error
)

func loadMono() (*sfnt.Font, error) {
	monoOnce.Do(func() {
		monoFont, monoErr = opentype.Parse(gomono.TTF)
	})
	return monoFont, monoErr
}

// Canvas is the visible surface: a solid background with centred monospace
// glyphs in a single accent colour.
type Canvas struct {
	img    *image.RGBA
	font   *sfnt.Font
	faces  map[float64]font.Face
	face   font.Face
	ascent fixed.Int26_6
	ink    *image.Uniform
	paper  *image.Uniform
}

var _ engine.Surface = (*Canvas)(nil)

// NewCanvas creates a canvas using Go Mono.
func NewCanvas() (*Canvas, error) {
	f, err := loadMono()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "parse monospace font")
	}
	return &Canvas{
		font:  f,
		faces: make(map[float64]font.Face),
		ink:   image.NewUniform(Accent),
		paper: image.NewUniform(Background),
	}, nil
}

// Reset sizes the canvas to width x height, fills it with the background
// and selects a face of glyphSize pixels.
func (c *Canvas) Reset(width, height int, glyphSize float64) {
	if c.img == nil || c.img.Rect.Dx() != width || c.img.Rect.Dy() != height {
		c.img = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}
	draw.Draw(c.img, c.img.Bounds(), c.paper, image.Point{}, draw.Src)

	face, ok := c.faces[glyphSize]
	if !ok {
		var err error
		face, err = opentype.NewFace(c.font, &opentype.FaceOptions{
			Size:    glyphSize,
			DPI:     FaceDPI,
			Hinting: font.HintingFull,
		})
		if err != nil {
			face = nil
		}
		c.faces[glyphSize] = face
	}
	c.face = face
	if face != nil {
		c.ascent = face.Metrics().Ascent
	}
}

// DrawGlyph draws ch horizontally centred on x, with the top of the glyph
// cell at y.
func (c *Canvas) DrawGlyph(ch rune, x, y float64) {
	if c.face == nil || ch == ' ' || ch == '\u00a0' {
		return
	}
	adv, ok := c.face.GlyphAdvance(ch)
	if !ok {
		return
	}
	d := font.Drawer{
		Dst:  c.img,
		Src:  c.ink,
		Face: c.face,
		Dot: fixed.Point26_6{
			X: toFixed(x) - adv/2,
			Y: toFixed(y) + c.ascent,
		},
	}
	d.DrawString(string(ch))
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Snapshot returns a copy of the canvas safe to hand to other goroutines.
func (c *Canvas) Snapshot() *image.RGBA {
	if c.img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	out := image.NewRGBA(c.img.Rect)
	copy(out.Pix, c.img.Pix)
	return out
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return EncodePNG(w, c.img)
}

// EncodePNG writes img as PNG, refusing empty images.
func EncodePNG(w io.Writer, img *image.RGBA) error {
	if img == nil || img.Rect.Empty() {
		return apperrors.New(apperrors.CodeNotFound, "canvas is empty")
	}
	if err := png.Encode(w, img); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encode png")
	}
	return nil
}

// Close releases the cached faces.
func (c *Canvas) Close() error {
	for size, f := range c.faces {
		if f != nil {
			_ = f.Close()
		}
		delete(c.faces, size)
	}
	c.face = nil
	return nil
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
