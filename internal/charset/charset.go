// Package charset holds the character ramps and paste targets.
package charset

import (
	"slices"
	"strings"
)

// Name identifies a character ramp.
type Name string

// Ramp names.
const (
	Standard Name = "STANDARD"
	Simple   Name = "SIMPLE"
	Matrix   Name = "MATRIX"
	Blocks   Name = "BLOCKS"
	Dots     Name = "DOTS"
)

// Target is the kind of surface the copied text is pasted into.
type Target string

const (
	Light Target = "LIGHT"
	Dark  Target = "DARK"
)

// Ramps ordered from darkest to lightest perceptual weight.
var ramps = map[Name]string{
	Standard: " .'`^\",:;Il!i><~+_-?][}{1)(|\\/*tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$",
	Simple:   " .:-=+*#%@",
	Matrix:   " 0OB01",
	Blocks:   " ░▒▓█",
	Dots:     " .·:*%#",
}

var order = []Name{Standard, Simple, Matrix, Blocks, Dots}

// Names returns the catalog in display order.
func Names() []Name {
	return slices.Clone(order)
}

// Parse resolves a ramp name case-insensitively.
func Parse(s string) (Name, bool) {
	n := Name(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := ramps[n]
	return n, ok
}

// ParseTarget resolves a paste target case-insensitively.
func ParseTarget(s string) (Target, bool) {
	switch t := Target(strings.ToUpper(strings.TrimSpace(s))); t {
	case Light, Dark:
		return t, true
	default:
		return "", false
	}
}

// Valid reports whether n is in the catalog.
func (n Name) Valid() bool {
	_, ok := ramps[n]
	return ok
}

// Valid reports whether t is LIGHT or DARK.
func (t Target) Valid() bool {
	return t == Light || t == Dark
}

// Next returns the ramp after n in display order, wrapping around.
func (n Name) Next() Name {
	i := slices.Index(order, n)
	return order[(i+1)%len(order)]
}

// Toggle flips between LIGHT and DARK.
func (t Target) Toggle() Target {
	if t == Light {
		return Dark
	}
	return Light
}

// Ramp returns the runes of n. LIGHT targets get the ramp reversed so the
// polarity still reads correctly on a light background. Unknown names fall
// back to STANDARD.
func Ramp(n Name, t Target) []rune {
	s, ok := ramps[n]
	if !ok {
		s = ramps[Standard]
	}
	r := []rune(s)
	if t == Light {
		slices.Reverse(r)
	}
	return r
}
