//go:build !camera

package source

import (
	"context"
	"strconv"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

type cameraGrabber struct{ device int }

func (c *cameraGrabber) open(context.Context) error {
	return apperrors.New(apperrors.CodeSourceUnavailable, "camera support not compiled in (build with -tags camera)").
		WithMetadata("device", strconv.Itoa(c.device))
}

func (c *cameraGrabber) grab() (Frame, bool, error) { return Frame{}, false, nil }

func (c *cameraGrabber) close() {}

// NewCamera returns a camera source that always fails to start in builds
// without the camera tag.
func NewCamera(device int) Live {
	return newLive(KindCamera, &cameraGrabber{device: device})
}
