package scheduler

import (
	"context"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/render"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

type surfaces struct {
	scratch *render.Scratch
	canvas  *render.Canvas
}

// Oneshot renders independent frames (uploads, RPC requests, the CLI)
// without disturbing the live renderer. Up to oneshotIdle surface sets are
// kept for reuse; surplus canvases are closed when returned.
type Oneshot struct {
	filter render.Filter
	idle   chan *surfaces
}

// NewOneshot creates a one-shot renderer using filter f.
func NewOneshot(f render.Filter) *Oneshot {
	return &Oneshot{filter: f, idle: make(chan *surfaces, oneshotIdle)}
}

// Close releases the idle surfaces. Renders still in flight close their
// own canvases when they finish.
func (o *Oneshot) Close() error {
	for {
		select {
		case s := <-o.idle:
			_ = s.canvas.Close()
		default:
			return nil
		}
	}
}

// Render transforms frame with p.
func (o *Oneshot) Render(ctx context.Context, frame source.Frame, p params.Params) (engine.Result, error) {
	if frame.Empty() {
		return engine.Result{}, apperrors.New(apperrors.CodeInvalidImage, "frame has no pixels")
	}
	if err := params.Validate(p); err != nil {
		return engine.Result{}, err
	}

	s, err := o.get()
	if err != nil {
		return engine.Result{}, err
	}
	defer o.put(s)

	_, span := trace.StartSpan(ctx, "render_oneshot")
	res := engine.Transform(frame.Image, frame.Width, frame.Height, p, s.scratch, s.canvas)
	span.SetAttr("cols", res.Cols)
	span.SetAttr("rows", res.Rows)
	span.Finish()
	return res, nil
}

func (o *Oneshot) put(s *surfaces) {
	select {
	case o.idle <- s:
	default:
		_ = s.canvas.Close()
	}
}

func (o *Oneshot) get() (*surfaces, error) {
	select {
	case s := <-o.idle:
		return s, nil
	default:
	}
	canvas, err := render.NewCanvas()
	if err != nil {
		return nil, err
	}
	return &surfaces{scratch: render.NewScratch(o.filter), canvas: canvas}, nil
}
