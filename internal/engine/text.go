package engine

import (
	"strings"

	"github.com/GriffinCanCode/asciicam/internal/charset"
)

// Encode prepares grid text for a paste target. DARK targets get every space
// replaced by a non-breaking space and the whole block fenced as code; LIGHT
// targets get the text unchanged.
func Encode(grid string, t charset.Target) string {
	if t != charset.Dark {
		return grid
	}
	return FenceOpen + strings.ReplaceAll(grid, " ", string(NBSP)) + FenceClose
}

// Unfence undoes Encode for DARK text: it strips the fence and maps
// non-breaking spaces back to plain spaces. Whitespace after the closing
// fence, such as the newline a paste or pipe adds, is ignored. Text without
// a fence only has its spaces normalised.
func Unfence(text string) string {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if strings.HasPrefix(trimmed, FenceOpen) && strings.HasSuffix(trimmed[len(FenceOpen):], FenceClose) {
		text = trimmed[len(FenceOpen) : len(trimmed)-len(FenceClose)]
	}
	return strings.ReplaceAll(text, string(NBSP), " ")
}

// Lines splits grid text into its rows, dropping the trailing newline.
func Lines(grid string) []string {
	grid = strings.TrimSuffix(grid, "\n")
	if grid == "" {
		return nil
	}
	return strings.Split(grid, "\n")
}
