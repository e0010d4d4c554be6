// Package render provides the raster surfaces the transform engine draws into.
package render

import "image/color"

// Visible surface styling.
var (
	Background = color.RGBA{A: 0xff}
	Accent     = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
)

// DPI used for glyph faces, so a face of size N is N pixels tall.
const FaceDPI = 72
