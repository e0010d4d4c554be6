package source

import "image"

// Frame is one raster image with its dimensions.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
}

// FromImage wraps img as a frame.
func FromImage(img image.Image) Frame {
	if img == nil {
		return Frame{}
	}
	b := img.Bounds()
	return Frame{Image: img, Width: b.Dx(), Height: b.Dy()}
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Image == nil || f.Width <= 0 || f.Height <= 0
}
