package engine

import "image"

// Rect is a fractional rectangle in source pixel coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Scratch is the downsampling surface. The engine sizes it, blits the crop
// into it in a single area-resampling draw and reads back the samples.
type Scratch interface {
	Resize(cols, rows int)
	DrawScaled(src image.Image, crop Rect)
	RGB(x, y int) (r, g, b uint8)
}

// Surface is the visible surface glyphs are drawn onto.
type Surface interface {
	// Reset sizes the surface, clears it to the background and selects a
	// glyph face of the given pixel size.
	Reset(width, height int, glyphSize float64)
	// DrawGlyph draws ch centred horizontally on x with its cell top at y.
	DrawGlyph(ch rune, x, y float64)
}
