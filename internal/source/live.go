package source

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// Live is a frame source that must be started before it can be read.
type Live interface {
	Kind() string
	Start(ctx context.Context) error
	// Read returns the current frame. ok is false while the device has not
	// produced a frame yet; callers skip that tick.
	Read() (f Frame, ok bool, err error)
	// Stop releases the device. Safe to call more than once.
	Stop()
}

// grabber implements device-specific acquisition
type grabber interface {
	open(ctx context.Context) error
	grab() (Frame, bool, error)
	close()
}

// live provides the shared start/stop bookkeeping
type live struct {
	kind string
	g    grabber

	mu      sync.Mutex
	running bool
}

func newLive(kind string, g grabber) *live {
	return &live{kind: kind, g: g}
}

func (l *live) Kind() string { return l.kind }

func (l *live) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return nil
	}
	if err := l.g.open(ctx); err != nil {
		return err
	}
	l.running = true
	slog.Info("source started", "kind", l.kind)
	return nil
}

func (l *live) Read() (Frame, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return Frame{}, false, apperrors.New(apperrors.CodeSourceUnavailable, l.kind+" source is not running")
	}
	f, ok, err := l.g.grab()
	if err != nil || !ok {
		return Frame{}, false, err
	}
	if f.Empty() {
		return Frame{}, false, nil
	}
	return f, true, nil
}

func (l *live) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.g.close()
	l.running = false
	slog.Info("source stopped", "kind", l.kind)
}

// Options select and configure a live source.
type Options struct {
	Kind         string
	CameraDevice int
	DisplayIndex int
	StillPath    string
}

// New builds the live source described by opts.
func New(opts Options) (Live, error) {
	switch opts.Kind {
	case KindScreen, "":
		return NewScreen(opts.DisplayIndex), nil
	case KindCamera:
		return NewCamera(opts.CameraDevice), nil
	case KindStill:
		f, err := Open(opts.StillPath)
		if err != nil {
			return nil, err
		}
		return NewStill(f), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown source kind %q", opts.Kind)
	}
}
