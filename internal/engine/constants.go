// Package engine implements the per-frame image-to-text transform.
package engine

// FontAspect corrects for glyph cells being taller than wide: sampled rows
// are scaled by it so the text block keeps the source's proportions.
const FontAspect = 0.55

// Luminance coefficients (ITU-R BT.709).
const (
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// Text framing for DARK paste targets.
const (
	FenceOpen  = "```\n"
	FenceClose = "```"
	NBSP       = '\u00a0'
)
