// Package terminal shows the live grid in a terminal and maps keys onto
// parameter changes.
package terminal

const (
	ResolutionStep = 1
	ZoomStep       = 0.1

	eventBuffer = 8
)
