// Package clipboard exports rendered text to the host clipboard.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

// Writer places text on a clipboard.
type Writer interface {
	Write(text string) error
}

// System writes to the host clipboard. Initialisation happens once, on the
// first write; writes are serialised.
type System struct {
	once    sync.Once
	initErr error
	mu      sync.Mutex

	init  func() error
	write func(clipboard.Format, []byte) <-chan struct{}
}

// NewSystem returns the host clipboard writer.
func NewSystem() *System {
	return &System{init: clipboard.Init, write: clipboard.Write}
}

// Init prepares the clipboard. It is safe to call repeatedly.
func (s *System) Init() error {
	s.once.Do(func() {
		if err := s.init(); err != nil {
			s.initErr = apperrors.Wrap(err, apperrors.CodeClipboardUnavailable, "clipboard unavailable")
		}
	})
	return s.initErr
}

// Write performs a mutex-guarded clipboard write.
func (s *System) Write(text string) error {
	if err := s.Init(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(clipboard.FmtText, []byte(text))
	return nil
}

// Disabled rejects every write.
type Disabled struct{}

func (Disabled) Write(string) error {
	return apperrors.New(apperrors.CodeClipboardUnavailable, "clipboard export is disabled")
}

// Exporter copies the most recent render.
type Exporter struct {
	w      Writer
	latest func() (string, bool)
}

// NewExporter copies whatever latest returns through w.
func NewExporter(w Writer, latest func() (string, bool)) *Exporter {
	return &Exporter{w: w, latest: latest}
}

// Copy writes the latest text and returns how many bytes were copied.
func (e *Exporter) Copy() (int, error) {
	text, ok := e.latest()
	if !ok {
		return 0, apperrors.New(apperrors.CodeNotFound, "nothing rendered yet")
	}
	if text == "" {
		return 0, apperrors.New(apperrors.CodeNotFound, "latest frame is empty")
	}
	if err := e.w.Write(text); err != nil {
		return 0, err
	}
	return len(text), nil
}
