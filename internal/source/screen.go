package source

import (
	"context"
	"image"
	"strconv"

	"github.com/kbinani/screenshot"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// display abstracts the capture calls so tests can run headless.
type display interface {
	NumActiveDisplays() int
	GetDisplayBounds(i int) image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

type systemDisplay struct{}

func (systemDisplay) NumActiveDisplays() int { return screenshot.NumActiveDisplays() }
func (systemDisplay) GetDisplayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }
func (systemDisplay) CaptureRect(r image.Rectangle) (*image.RGBA, error) { return screenshot.CaptureRect(r) }

type screenGrabber struct {
	d      display
	index  int
	bounds image.Rectangle
}

func (s *screenGrabber) open(context.Context) error {
	n := s.d.NumActiveDisplays()
	if n == 0 {
		return apperrors.New(apperrors.CodeSourceUnavailable, "no active displays found")
	}
	if s.index < 0 || s.index >= n {
		return apperrors.Newf(apperrors.CodeSourceUnavailable, "display %d not found (%d active)", s.index, n).
			WithMetadata("display", strconv.Itoa(s.index))
	}
	s.bounds = s.d.GetDisplayBounds(s.index)
	if s.bounds.Empty() {
		return apperrors.Newf(apperrors.CodeSourceUnavailable, "display %d has no area", s.index)
	}
	return nil
}

func (s *screenGrabber) grab() (Frame, bool, error) {
	img, err := s.d.CaptureRect(s.bounds)
	if err != nil {
		return Frame{}, false, apperrors.Wrap(err, apperrors.CodeSourceUnavailable, "capture display")
	}
	return FromImage(img), true, nil
}

func (s *screenGrabber) close() {}

// NewScreen captures the display at index.
func NewScreen(index int) Live {
	return newLive(KindScreen, &screenGrabber{d: systemDisplay{}, index: index})
}
