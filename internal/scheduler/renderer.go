package scheduler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/render"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

// Output is one published render.
type Output struct {
	Seq        uint64        `json:"seq"`
	Text       string        `json:"text"`
	Cols       int           `json:"cols"`
	Rows       int           `json:"rows"`
	FPS        int           `json:"fps"`
	Params     params.Params `json:"params"`
	RenderedAt time.Time     `json:"renderedAt"`
	Grid       [][]rune      `json:"-"`
}

// Renderer owns the scratch and visible surfaces and runs one transform at
// a time against them.
type Renderer struct {
	mu      sync.Mutex
	scratch *render.Scratch
	canvas  *render.Canvas
	fps     fpsMeter
	seq     uint64
	latest  Output
	now     func() time.Time

	subMu sync.Mutex
	subs  map[chan Output]struct{}
}

// NewRenderer creates a renderer downsampling with filter f.
func NewRenderer(f render.Filter) (*Renderer, error) {
	canvas, err := render.NewCanvas()
	if err != nil {
		return nil, err
	}
	return &Renderer{
		scratch: render.NewScratch(f),
		canvas:  canvas,
		now:     time.Now,
		subs:    make(map[chan Output]struct{}),
	}, nil
}

// Render transforms frame with p and publishes the result.
func (r *Renderer) Render(ctx context.Context, frame source.Frame, p params.Params) (Output, error) {
	if frame.Empty() {
		return Output{}, apperrors.New(apperrors.CodeInvalidImage, "frame has no pixels")
	}
	if err := params.Validate(p); err != nil {
		return Output{}, err
	}

	_, span := trace.StartSpan(ctx, "render_frame")
	defer span.Finish()

	r.mu.Lock()
	res := engine.Transform(frame.Image, frame.Width, frame.Height, p, r.scratch, r.canvas)
	now := r.now()
	r.seq++
	out := Output{
		Seq:        r.seq,
		Text:       res.Text,
		Cols:       res.Cols,
		Rows:       res.Rows,
		FPS:        r.fps.mark(now),
		Params:     p,
		RenderedAt: now,
		Grid:       res.Grid,
	}
	r.latest = out
	r.mu.Unlock()

	span.SetAttr("cols", res.Cols)
	span.SetAttr("rows", res.Rows)
	r.publish(out)
	return out, nil
}

// Latest returns the most recent render. ok is false before the first one.
func (r *Renderer) Latest() (Output, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.latest.Seq > 0
}

// WritePNG encodes the visible surface.
func (r *Renderer) WritePNG(w io.Writer) error {
	r.mu.Lock()
	snap := r.canvas.Snapshot()
	r.mu.Unlock()
	if snap.Rect.Empty() {
		return apperrors.New(apperrors.CodeNotFound, "nothing rendered yet")
	}
	return render.EncodePNG(w, snap)
}

// Subscribe returns a channel receiving each new render. Slow subscribers
// only see the newest output.
func (r *Renderer) Subscribe() (<-chan Output, func()) {
	ch := make(chan Output, outputBuffer)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, ch)
			r.subMu.Unlock()
		})
	}
}

func (r *Renderer) publish(out Output) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- out:
		default:
		}
	}
}

// Close releases the font faces.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canvas.Close()
}
