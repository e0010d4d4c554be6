package source

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// Decode reads a still image in any registered format.
func Decode(r io.Reader) (Frame, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Frame{}, apperrors.Wrap(err, apperrors.CodeInvalidImage, "read image")
	}
	if len(data) > MaxImageBytes {
		return Frame{}, apperrors.Newf(apperrors.CodeInvalidImage, "image exceeds %d bytes", MaxImageBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, apperrors.Wrap(err, apperrors.CodeInvalidImage, "unrecognised image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return Frame{}, apperrors.Newf(apperrors.CodeInvalidImage, "unsupported image size %dx%d", cfg.Width, cfg.Height).
			WithMetadata("format", format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, apperrors.Wrap(err, apperrors.CodeInvalidImage, "decode "+format).
			WithMetadata("format", format)
	}
	return FromImage(img), nil
}

// Open decodes the image file at path.
func Open(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, apperrors.Wrap(err, apperrors.CodeInvalidImage, "open image").
			WithMetadata("path", path)
	}
	defer f.Close()
	return Decode(f)
}

type stillGrabber struct {
	frame Frame
}

func (s *stillGrabber) open(context.Context) error { return nil }

func (s *stillGrabber) grab() (Frame, bool, error) { return s.frame, true, nil }

func (s *stillGrabber) close() {}

// NewStill returns a live source that replays one frame forever.
func NewStill(f Frame) Live {
	return newLive(KindStill, &stillGrabber{frame: f})
}
