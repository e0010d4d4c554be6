//go:build camera

package source

import (
	"context"
	"strconv"

	"gocv.io/x/gocv"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

type cameraGrabber struct {
	device int
	vc     *gocv.VideoCapture
	mat    gocv.Mat
}

func (c *cameraGrabber) open(context.Context) error {
	vc, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeSourceUnavailable, "open camera").
			WithMetadata("device", strconv.Itoa(c.device))
	}
	if !vc.IsOpened() {
		vc.Close()
		return apperrors.Newf(apperrors.CodeSourceUnavailable, "camera %d did not open", c.device)
	}
	c.vc = vc
	c.mat = gocv.NewMat()
	return nil
}

// grab reports not-ready until the device delivers a non-empty frame.
func (c *cameraGrabber) grab() (Frame, bool, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return Frame{}, false, nil
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return Frame{}, false, apperrors.Wrap(err, apperrors.CodeSourceUnavailable, "convert camera frame")
	}
	return FromImage(img), true, nil
}

func (c *cameraGrabber) close() {
	c.mat.Close()
	c.vc.Close()
	c.vc = nil
}

// NewCamera opens the video capture device with the given index.
func NewCamera(device int) Live {
	return newLive(KindCamera, &cameraGrabber{device: device})
}
