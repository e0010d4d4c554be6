package scheduler

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/resilience"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/syncx"
)

// Notice is a user-facing, non-fatal event such as a source failing.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// Config tunes the live loop.
type Config struct {
	RefreshRate     float64
	SkipSimilar     bool
	MaxHashDistance int
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
		RefreshRate:     DefaultRefreshRate,
		SkipSimilar:     true,
		MaxHashDistance: DefaultMaxHashDistance,
	}
}

// Loop paces a live source and renders its frames. Ticks that land while a
// render is running collapse into one queued rerun.
type Loop struct {
	cfg      Config
	renderer *Renderer
	store    *params.Store
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	flight   syncx.Flight
	notices  chan Notice

	mu          sync.Mutex
	src         source.Live
	cancel      context.CancelFunc
	done        chan struct{}
	lastHash    *goimagehash.ImageHash
	lastMean    float64
	lastVersion uint64
}

// NewLoop wires a loop to its renderer and parameter store.
func NewLoop(r *Renderer, store *params.Store, cfg Config) *Loop {
	if cfg.RefreshRate < 0 {
		cfg.RefreshRate = 0
	}
	l := &Loop{
		cfg:      cfg,
		renderer: r,
		store:    store,
		retry:    resilience.SourceRetryConfig(),
		notices:  make(chan Notice, noticeBuffer),
	}
	l.breaker = resilience.New("source", resilience.SourceConfig()).WithHook(l.onBreaker)
	return l
}

// Notices carries source failures and recoveries.
func (l *Loop) Notices() <-chan Notice {
	return l.notices
}

// Start stops any running source and begins rendering src. A source that
// cannot be acquired produces a notice and leaves the loop idle.
func (l *Loop) Start(ctx context.Context, src source.Live) error {
	l.Stop()

	if err := resilience.Retry(ctx, l.retry, func() error { return src.Start(ctx) }); err != nil {
		l.notify(LevelWarn, src.Kind(), "could not start "+src.Kind()+" source: "+err.Error())
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.src = src
	l.cancel = cancel
	l.done = done
	l.lastHash = nil
	l.mu.Unlock()

	l.breaker.Reset()
	go l.run(runCtx, src, done)
	slog.Info("render loop started", "source", src.Kind(), "rate", l.cfg.RefreshRate)
	return nil
}

// Stop halts ticking, waits for an in-flight render and releases the source.
func (l *Loop) Stop() {
	l.mu.Lock()
	src, cancel, done := l.src, l.cancel, l.done
	l.src, l.cancel, l.done = nil, nil, nil
	l.mu.Unlock()

	if src == nil {
		return
	}
	cancel()
	<-done
	l.flight.Drop()
	l.flight.Wait()
	src.Stop()
	slog.Info("render loop stopped", "source", src.Kind())
}

// Running reports the active source kind, if any.
func (l *Loop) Running() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.src == nil {
		return "", false
	}
	return l.src.Kind(), true
}

func (l *Loop) run(ctx context.Context, src source.Live, done chan struct{}) {
	defer close(done)

	changes, unsubscribe := l.store.Subscribe()
	defer unsubscribe()

	// Stills only change when the parameters do.
	var tick <-chan time.Time
	if l.cfg.RefreshRate > 0 && src.Kind() != source.KindStill {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / l.cfg.RefreshRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	render := func() { l.tick(ctx, src) }
	l.flight.Go(render)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			l.flight.Go(render)
		case <-changes:
			l.flight.Go(render)
		}
	}
}

func (l *Loop) tick(ctx context.Context, src source.Live) {
	if ctx.Err() != nil {
		return
	}

	var (
		frame source.Frame
		ok    bool
	)
	err := l.breaker.Execute(func() error {
		var err error
		frame, ok, err = src.Read()
		return err
	})
	switch {
	case errors.Is(err, resilience.ErrOpen):
		return
	case err != nil:
		slog.Warn("frame read failed", "source", src.Kind(), "error", err)
		return
	case !ok:
		slog.Debug("source not ready", "source", src.Kind())
		return
	}

	p, version := l.store.Load()
	if l.unchanged(frame.Image, version) {
		return
	}
	if _, err := l.renderer.Render(ctx, frame, p); err != nil && !apperrors.IsCode(err, apperrors.CodeCancelled) {
		slog.Warn("render failed", "source", src.Kind(), "error", err)
	}
}

// unchanged reports whether img is perceptually the same as the last
// rendered frame under the same parameters. The perceptual hash ignores
// global brightness, so the mean luminance has to match as well.
func (l *Loop) unchanged(img image.Image, version uint64) bool {
	if !l.cfg.SkipSimilar {
		return false
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return false
	}
	mean := meanLuma(img)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastHash == nil || version != l.lastVersion {
		l.lastHash, l.lastMean, l.lastVersion = hash, mean, version
		return false
	}
	dist, err := l.lastHash.Distance(hash)
	if err == nil && dist <= l.cfg.MaxHashDistance && math.Abs(mean-l.lastMean) <= MeanLumaTolerance {
		slog.Debug("skipping similar frame", "distance", dist, "mean", mean)
		return true
	}
	l.lastHash, l.lastMean = hash, mean
	return false
}

// meanLuma is the average BT.709 luminance of img on a 0-255 scale.
func meanLuma(img image.Image) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, y):rgba.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				sum += engine.Luminance(float64(row[i]), float64(row[i+1]), float64(row[i+2]))
			}
		}
		return sum / float64(n)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum += engine.Luminance(float64(r>>8), float64(g>>8), float64(bl>>8))
		}
	}
	return sum / float64(n)
}

func (l *Loop) onBreaker(from, to resilience.State) {
	kind, _ := l.Running()
	switch {
	case to == resilience.Open:
		l.notify(LevelWarn, kind, "frame source is failing; capture paused")
	case from == resilience.HalfOpen && to == resilience.Closed:
		l.notify(LevelInfo, kind, "frame source recovered")
	}
}

func (l *Loop) notify(level, kind, msg string) {
	n := Notice{Level: level, Message: msg, Source: kind}
	if level == LevelWarn {
		slog.Warn(msg, "source", kind)
	} else {
		slog.Info(msg, "source", kind)
	}
	select {
	case l.notices <- n:
	default:
	}
}
