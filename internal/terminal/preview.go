package terminal

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/scheduler"
)

// Frames publishes rendered output.
type Frames interface {
	Latest() (scheduler.Output, bool)
	Subscribe() (<-chan scheduler.Output, func())
}

// Copier exports the latest text to the clipboard.
type Copier interface {
	Copy() (int, error)
}

// Preview draws each published grid with a status line underneath.
type Preview struct {
	screen  tcell.Screen
	frames  Frames
	store   *params.Store
	copier  Copier
	notices <-chan scheduler.Notice

	last   scheduler.Output
	status string
	style  tcell.Style
}

// New creates a preview on screen. copier may be nil when the clipboard is
// disabled.
func New(screen tcell.Screen, frames Frames, store *params.Store, copier Copier) *Preview {
	return &Preview{
		screen: screen,
		frames: frames,
		store:  store,
		copier: copier,
		style:  tcell.StyleDefault,
	}
}

// WithNotices shows loop notices on the status line.
func (p *Preview) WithNotices(ch <-chan scheduler.Notice) *Preview {
	p.notices = ch
	return p
}

// NewScreen returns the terminal screen for the current tty.
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "open terminal")
	}
	return s, nil
}

// Run takes over the screen until q is pressed or ctx ends.
func (p *Preview) Run(ctx context.Context) error {
	if err := p.screen.Init(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "init terminal")
	}
	defer p.screen.Fini()
	p.screen.SetStyle(p.style)
	p.screen.HideCursor()

	frames, unsubscribe := p.frames.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, eventBuffer)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	if out, ok := p.frames.Latest(); ok {
		p.last = out
	}
	p.draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case out := <-frames:
			p.last = out
			p.draw()
		case n := <-p.notices:
			p.status = n.Message
			p.draw()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				p.screen.Sync()
				p.draw()
			case *tcell.EventKey:
				if p.handleKey(ev) {
					return nil
				}
				p.draw()
			}
		}
	}
}

// handleKey applies one key press and reports whether to quit.
func (p *Preview) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'c':
		p.copy()
	case 'i':
		p.update(func(pp *params.Params) { pp.Invert = !pp.Invert })
	case '+', '=':
		p.update(func(pp *params.Params) { pp.Resolution += ResolutionStep })
	case '-':
		p.update(func(pp *params.Params) { pp.Resolution -= ResolutionStep })
	case 't':
		p.update(func(pp *params.Params) { pp.PasteTarget = pp.PasteTarget.Toggle() })
	case 's':
		p.update(func(pp *params.Params) { pp.CharSet = pp.CharSet.Next() })
	case '[':
		p.update(func(pp *params.Params) { pp.Zoom = stepZoom(pp.Zoom, -ZoomStep) })
	case ']':
		p.update(func(pp *params.Params) { pp.Zoom = stepZoom(pp.Zoom, ZoomStep) })
	}
	return false
}

func (p *Preview) update(fn func(*params.Params)) {
	p.store.Update(fn)
	p.status = ""
}

func (p *Preview) copy() {
	if p.copier == nil {
		p.status = "clipboard disabled"
		return
	}
	n, err := p.copier.Copy()
	if err != nil {
		p.status = "copy failed: " + err.Error()
		return
	}
	p.status = fmt.Sprintf("copied %d bytes", n)
}

// stepZoom moves zoom by delta on the slider's 0.1 grid.
func stepZoom(zoom, delta float64) float64 {
	return math.Round((zoom+delta)*10) / 10
}

func (p *Preview) draw() {
	p.screen.Clear()
	w, h := p.screen.Size()
	gridRows := h - 1

	for y, row := range p.last.Grid {
		if y >= gridRows {
			break
		}
		p.drawRunes(0, y, w, row)
	}
	if h > 0 {
		p.drawRunes(0, h-1, w, []rune(p.statusLine()))
	}
	p.screen.Show()
}

// drawRunes writes runes from column x, advancing by display width and
// clipping at maxX.
func (p *Preview) drawRunes(x, y, maxX int, runes []rune) {
	for _, r := range runes {
		rw := max(runewidth.RuneWidth(r), 1)
		if x+rw > maxX {
			return
		}
		p.screen.SetContent(x, y, r, nil, p.style)
		x += rw
	}
}

func (p *Preview) statusLine() string {
	cur := p.store.Snapshot()
	line := fmt.Sprintf("%dx%d %dfps res=%d zoom=%.1f %s %s",
		p.last.Cols, p.last.Rows, p.last.FPS, cur.Resolution, cur.Zoom, cur.CharSet, cur.PasteTarget)
	if cur.Invert {
		line += " inverted"
	}
	if p.status != "" {
		line += " | " + p.status
	}
	return line
}
