package engine

import (
	"image"
	"math"
	"strings"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	"github.com/GriffinCanCode/asciicam/internal/params"
)

// Result is the output of one transform.
type Result struct {
	// Text is the clipboard artefact, encoded for the paste target.
	Text string
	// Grid holds the characters exactly as drawn, one slice per row.
	Grid [][]rune
	Cols int
	Rows int
	// Crop is the source region that was sampled.
	Crop Rect
}

// Empty reports whether the grid has no cells.
func (r Result) Empty() bool {
	return len(r.Grid) == 0
}

// GridSize returns the sampled grid dimensions for a width x height frame.
func GridSize(width, height, resolution int) (cols, rows int) {
	if resolution <= 0 || width <= 0 || height <= 0 {
		return 0, 0
	}
	cols = width / resolution
	rows = int(math.Floor(float64(height) / float64(resolution) * FontAspect))
	return cols, rows
}

// CropRect returns the centred sub-rectangle sampled at the given zoom.
func CropRect(width, height int, zoom float64) Rect {
	if zoom < 1 {
		zoom = 1
	}
	sw := float64(width) / zoom
	sh := float64(height) / zoom
	return Rect{
		X: (float64(width) - sw) / 2,
		Y: (float64(height) - sh) / 2,
		W: sw,
		H: sh,
	}
}

// Transform converts frame into a character grid. Glyphs are drawn onto
// visible and the same characters are accumulated into the returned text in
// a single pass, so both always agree. p must already be validated.
func Transform(frame image.Image, width, height int, p params.Params, scratch Scratch, visible Surface) Result {
	cols, rows := GridSize(width, height, p.Resolution)
	res := Result{Cols: cols, Rows: rows, Crop: CropRect(width, height, p.Zoom)}

	visible.Reset(width, height, float64(p.Resolution))
	if cols <= 0 || rows <= 0 {
		return res
	}

	scratch.Resize(cols, rows)
	scratch.DrawScaled(frame, res.Crop)

	ramp := charset.Ramp(p.CharSet, p.PasteTarget)
	tone := NewTone(p)
	cellW := float64(p.Resolution)
	cellH := float64(p.Resolution) / FontAspect

	var sb strings.Builder
	sb.Grow(rows * (cols + 1))
	res.Grid = make([][]rune, rows)
	for y := 0; y < rows; y++ {
		row := make([]rune, cols)
		for x := 0; x < cols; x++ {
			ch := ramp[Index(tone.Luma(scratch.RGB(x, y)), len(ramp))]
			visible.DrawGlyph(ch, float64(x)*cellW, float64(y)*cellH)
			row[x] = ch
			sb.WriteRune(ch)
		}
		sb.WriteByte('\n')
		res.Grid[y] = row
	}

	res.Text = Encode(sb.String(), p.PasteTarget)
	return res
}
