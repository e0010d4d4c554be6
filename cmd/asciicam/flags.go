package main

import (
	"flag"
	"net/url"

	"github.com/GriffinCanCode/asciicam/internal/config"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/source"
)

// paramFlags collects the parameter flags the user actually set.
type paramFlags struct {
	fs *flag.FlagSet
}

func addParamFlags(fs *flag.FlagSet) paramFlags {
	fs.Int("resolution", params.DefaultResolution, "cell size in pixels (2-12)")
	fs.Int("brightness", params.DefaultBrightness, "brightness offset (-100..100)")
	fs.Float64("contrast", params.DefaultContrast, "contrast (0..2)")
	fs.Float64("zoom", params.DefaultZoom, "center zoom (1..4)")
	fs.Bool("invert", false, "invert luminance")
	fs.String("charset", "", "character set: STANDARD, SIMPLE, MATRIX, BLOCKS, DOTS")
	fs.String("target", "", "paste target: DARK or LIGHT")
	return paramFlags{fs: fs}
}

// patch turns the explicitly set flags into a parameter patch.
func (f paramFlags) patch() (params.Patch, error) {
	v := url.Values{}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "resolution", "brightness", "contrast", "zoom", "invert", "charset", "target":
			v.Set(fl.Name, fl.Value.String())
		}
	})
	return params.PatchFromValues(v)
}

// params applies the set flags over base and validates the result.
func (f paramFlags) params(base params.Params) (params.Params, error) {
	pt, err := f.patch()
	if err != nil {
		return params.Params{}, err
	}
	p := pt.Apply(base)
	if err := params.Validate(p); err != nil {
		return params.Params{}, err
	}
	return p, nil
}

type sourceFlags struct {
	kind    string
	camera  int
	display int
	image   string
}

func addSourceFlags(fs *flag.FlagSet, cfg *config.Config) *sourceFlags {
	sf := &sourceFlags{}
	fs.StringVar(&sf.kind, "source", cfg.Source, "live source: screen, camera or still")
	fs.IntVar(&sf.camera, "camera", cfg.CameraDevice, "camera device index")
	fs.IntVar(&sf.display, "display", cfg.DisplayIndex, "display index for screen capture")
	fs.StringVar(&sf.image, "image", "", "image path for the still source")
	return sf
}

func (sf *sourceFlags) options() source.Options {
	return source.Options{
		Kind:         sf.kind,
		CameraDevice: sf.camera,
		DisplayIndex: sf.display,
		StillPath:    sf.image,
	}
}
