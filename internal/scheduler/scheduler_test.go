package scheduler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/render"
	"github.com/GriffinCanCode/asciicam/internal/resilience"
	"github.com/GriffinCanCode/asciicam/internal/source"
)

func greyFrame(w, h int, v uint8) source.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 0xff
	}
	return source.FromImage(img)
}

func patternFrame(w, h, seed int) source.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*seed + y*3) % 256)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return source.FromImage(img)
}

// sceneFrame is a smooth grey pattern shifted by offset.
func sceneFrame(w, h, offset int) source.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(100 + offset + int(60*math.Sin(float64(x)/7)*math.Cos(float64(y)/5)))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return source.FromImage(img)
}

func simpleParams() params.Params {
	p := params.Default()
	p.Resolution = 4
	p.CharSet = charset.Simple
	return p
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(render.FilterBox)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRenderer_RenderPublishes(t *testing.T) {
	r := newRenderer(t)
	if _, ok := r.Latest(); ok {
		t.Fatal("Latest before any render should report false")
	}
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	out, err := r.Render(context.Background(), greyFrame(100, 100, 128), simpleParams())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Cols != 25 || out.Rows != 13 || out.Seq != 1 {
		t.Errorf("output = %dx%d seq %d", out.Cols, out.Rows, out.Seq)
	}
	if !strings.HasPrefix(out.Text, "```\n=====") {
		t.Errorf("text = %q", out.Text[:12])
	}

	select {
	case got := <-outs:
		if got.Seq != out.Seq {
			t.Errorf("published seq %d, want %d", got.Seq, out.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}

	latest, ok := r.Latest()
	if !ok || latest.Text != out.Text {
		t.Error("Latest does not match the last render")
	}
}

func TestRenderer_Rejects(t *testing.T) {
	r := newRenderer(t)
	if _, err := r.Render(context.Background(), source.Frame{}, simpleParams()); !apperrors.IsCode(err, apperrors.CodeInvalidImage) {
		t.Errorf("empty frame: %v", err)
	}
	bad := simpleParams()
	bad.Zoom = 9
	if _, err := r.Render(context.Background(), greyFrame(10, 10, 0), bad); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("bad params: %v", err)
	}
}

func TestRenderer_FPS(t *testing.T) {
	r := newRenderer(t)
	now := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return now }

	f := greyFrame(40, 40, 60)
	out, _ := r.Render(context.Background(), f, simpleParams())
	if out.FPS != 0 {
		t.Errorf("first frame fps = %d, want 0", out.FPS)
	}
	now = now.Add(40 * time.Millisecond)
	out, _ = r.Render(context.Background(), f, simpleParams())
	if out.FPS != 25 {
		t.Errorf("fps = %d, want 25", out.FPS)
	}
	now = now.Add(30 * time.Millisecond)
	out, _ = r.Render(context.Background(), f, simpleParams())
	if out.FPS != 33 {
		t.Errorf("fps = %d, want 33", out.FPS)
	}
}

func TestRenderer_WritePNG(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	if err := r.WritePNG(&buf); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("before render: %v", err)
	}
	if _, err := r.Render(context.Background(), greyFrame(64, 48, 200), simpleParams()); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := r.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("png is %v; want the source size", img.Bounds())
	}
}

func TestRenderer_DegenerateStillPublishes(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Render(context.Background(), greyFrame(3, 3, 0), simpleParams())
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != "" || out.Cols != 0 || out.Rows != 0 {
		t.Errorf("degenerate output = %+v", out)
	}
}

func TestOneshot(t *testing.T) {
	o := NewOneshot(render.FilterBox)
	for i := 0; i < 3; i++ {
		res, err := o.Render(context.Background(), greyFrame(100, 100, 128), simpleParams())
		if err != nil {
			t.Fatal(err)
		}
		if res.Rows != 13 || string(res.Grid[0][:3]) != "===" {
			t.Errorf("run %d: %+v", i, res.Grid[0])
		}
	}
	if _, err := o.Render(context.Background(), source.Frame{}, simpleParams()); !apperrors.IsCode(err, apperrors.CodeInvalidImage) {
		t.Errorf("empty frame: %v", err)
	}
}

func TestOneshotIdleSurfaces(t *testing.T) {
	o := NewOneshot(render.FilterBox)
	var wg sync.WaitGroup
	for i := 0; i < 3*oneshotIdle; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Render(context.Background(), greyFrame(40, 40, 90), simpleParams()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := len(o.idle); n < 1 || n > oneshotIdle {
		t.Errorf("idle surfaces = %d, want 1..%d", n, oneshotIdle)
	}
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}
	if n := len(o.idle); n != 0 {
		t.Errorf("idle surfaces after Close = %d", n)
	}
	if _, err := o.Render(context.Background(), greyFrame(40, 40, 90), simpleParams()); err != nil {
		t.Errorf("Render after Close: %v", err)
	}
}

func TestFPSMeter(t *testing.T) {
	var m fpsMeter
	t0 := time.Unix(0, 0)
	if m.mark(t0) != 0 {
		t.Error("first mark should be 0")
	}
	if got := m.mark(t0.Add(16 * time.Millisecond)); got != 63 {
		t.Errorf("16ms = %d fps, want 63", got)
	}
	if got := m.mark(t0.Add(16 * time.Millisecond)); got != 63 {
		t.Errorf("zero delta should keep the last value, got %d", got)
	}
}

// mockLive is a scriptable live source.
type mockLive struct {
	mu       sync.Mutex
	kind     string
	startErr error
	readErr  error
	ready    bool
	frame    source.Frame
	starts   int
	stops    int
	reads    int
}

func (m *mockLive) Kind() string { return m.kind }

func (m *mockLive) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return m.startErr
}

func (m *mockLive) Read() (source.Frame, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return source.Frame{}, false, m.readErr
	}
	return m.frame, m.ready, nil
}

func (m *mockLive) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
}

func (m *mockLive) set(fn func(m *mockLive)) {
	m.mu.Lock()
	fn(m)
	m.mu.Unlock()
}

func (m *mockLive) counts() (starts, stops, reads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops, m.reads
}

func newLoop(t *testing.T, rate float64) (*Loop, *Renderer, *params.Store) {
	t.Helper()
	r := newRenderer(t)
	store := params.NewStore(simpleParams())
	l := NewLoop(r, store, Config{RefreshRate: rate, SkipSimilar: true})
	l.retry = resilience.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	t.Cleanup(l.Stop)
	return l, r, store
}

func waitOutput(t *testing.T, ch <-chan Output) Output {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a render")
		return Output{}
	}
}

func TestLoop_StartFailureNotice(t *testing.T) {
	l, _, _ := newLoop(t, 100)
	src := &mockLive{kind: source.KindCamera, startErr: apperrors.New(apperrors.CodeSourceUnavailable, "permission denied")}

	if err := l.Start(context.Background(), src); !apperrors.IsCode(err, apperrors.CodeSourceUnavailable) {
		t.Fatalf("Start = %v", err)
	}
	if starts, _, _ := src.counts(); starts != 2 {
		t.Errorf("starts = %d, want one retry", starts)
	}
	if _, running := l.Running(); running {
		t.Error("loop should be idle after a failed start")
	}
	select {
	case n := <-l.Notices():
		if n.Level != LevelWarn || n.Source != source.KindCamera {
			t.Errorf("notice = %+v", n)
		}
	default:
		t.Error("expected a notice")
	}
}

func TestLoop_RendersAndStops(t *testing.T) {
	l, r, _ := newLoop(t, 200)
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	src := &mockLive{kind: source.KindScreen}
	if err := l.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	// Not ready yet: nothing is rendered.
	time.Sleep(30 * time.Millisecond)
	if _, ok := r.Latest(); ok {
		t.Fatal("rendered before the source was ready")
	}

	src.set(func(m *mockLive) { m.frame, m.ready = patternFrame(80, 60, 1), true })
	waitOutput(t, outs)

	kind, running := l.Running()
	if !running || kind != source.KindScreen {
		t.Errorf("Running = %q, %v", kind, running)
	}

	l.Stop()
	_, stops, reads := src.counts()
	if stops != 1 {
		t.Errorf("stops = %d, want 1", stops)
	}
	time.Sleep(30 * time.Millisecond)
	if _, _, after := src.counts(); after != reads {
		t.Error("source read after Stop")
	}
}

func TestLoop_SkipsUnchangedFrames(t *testing.T) {
	l, r, store := newLoop(t, 200)
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	src := &mockLive{kind: source.KindScreen, frame: patternFrame(64, 64, 2), ready: true}
	if err := l.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	first := waitOutput(t, outs)

	time.Sleep(60 * time.Millisecond)
	if latest, _ := r.Latest(); latest.Seq != first.Seq {
		t.Errorf("identical frames re-rendered (seq %d -> %d)", first.Seq, latest.Seq)
	}

	// A parameter change forces a render of the same frame.
	store.Update(func(p *params.Params) { p.Invert = true })
	out := waitOutput(t, outs)
	if !out.Params.Invert {
		t.Error("render after param change did not use the new params")
	}

	// New content renders too.
	src.set(func(m *mockLive) { m.frame = patternFrame(64, 64, 9) })
	waitOutput(t, outs)
}

func TestLoop_StillRendersOnParamChange(t *testing.T) {
	l, r, store := newLoop(t, 200)
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	src := &mockLive{kind: source.KindStill, frame: greyFrame(100, 100, 128), ready: true}
	if err := l.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	waitOutput(t, outs)
	_, _, reads := src.counts()

	time.Sleep(30 * time.Millisecond)
	if _, _, now := src.counts(); now != reads {
		t.Error("still source should not be polled by a ticker")
	}

	store.Update(func(p *params.Params) { p.Brightness = 100 })
	out := waitOutput(t, outs)
	if !strings.Contains(out.Text, "%%%%") {
		t.Errorf("brightness 100 on mid-grey should give '%%', got %q", out.Text[:10])
	}
}

func TestLoop_BreakerNotices(t *testing.T) {
	l, _, _ := newLoop(t, 500)
	src := &mockLive{kind: source.KindCamera, readErr: apperrors.New(apperrors.CodeSourceUnavailable, "unplugged")}
	if err := l.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-l.Notices():
		if n.Level != LevelWarn || !strings.Contains(n.Message, "paused") {
			t.Errorf("notice = %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("breaker never opened")
	}

	// Failing fast: reads stop while the breaker is open.
	_, _, before := src.counts()
	time.Sleep(40 * time.Millisecond)
	if _, _, after := src.counts(); after != before {
		t.Errorf("source hammered while breaker open (%d -> %d reads)", before, after)
	}
}

func TestLoop_SwitchingSourcesStopsPrevious(t *testing.T) {
	l, r, _ := newLoop(t, 200)
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	cam := &mockLive{kind: source.KindCamera, frame: patternFrame(32, 32, 1), ready: true}
	if err := l.Start(context.Background(), cam); err != nil {
		t.Fatal(err)
	}
	waitOutput(t, outs)

	still := &mockLive{kind: source.KindStill, frame: greyFrame(32, 32, 10), ready: true}
	if err := l.Start(context.Background(), still); err != nil {
		t.Fatal(err)
	}
	if _, stops, _ := cam.counts(); stops != 1 {
		t.Errorf("camera stops = %d, want 1", stops)
	}
	if kind, _ := l.Running(); kind != source.KindStill {
		t.Errorf("running %q", kind)
	}
}

func TestLoop_UnchangedTracksBrightness(t *testing.T) {
	l, _, _ := newLoop(t, 0)
	base := sceneFrame(160, 120, 0)

	if l.unchanged(base.Image, 1) {
		t.Fatal("first frame reported unchanged")
	}
	if !l.unchanged(sceneFrame(160, 120, 0).Image, 1) {
		t.Error("identical frame should be skipped")
	}
	if l.unchanged(sceneFrame(160, 120, 30).Image, 1) {
		t.Error("brightness-shifted frame was skipped")
	}
	if l.unchanged(base.Image, 1) {
		t.Error("return to the darker frame was skipped")
	}
}

func TestLoop_RendersBrightnessShift(t *testing.T) {
	l, r, _ := newLoop(t, 200)
	outs, unsubscribe := r.Subscribe()
	defer unsubscribe()

	src := &mockLive{kind: source.KindCamera, frame: sceneFrame(64, 64, 0), ready: true}
	if err := l.Start(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	first := waitOutput(t, outs)

	src.set(func(m *mockLive) { m.frame = sceneFrame(64, 64, 30) })
	out := waitOutput(t, outs)
	if out.Text == first.Text {
		t.Error("brighter frame rendered the same text")
	}
}

func TestMeanLuma(t *testing.T) {
	if got := meanLuma(greyFrame(8, 8, 128).Image); math.Abs(got-128) > 1e-9 {
		t.Errorf("meanLuma(grey 128) = %v", got)
	}
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}
	if got := meanLuma(gray); math.Abs(got-200) > 1e-9 {
		t.Errorf("meanLuma(gray image) = %v", got)
	}
	if got := meanLuma(image.NewRGBA(image.Rectangle{})); got != 0 {
		t.Errorf("meanLuma(empty) = %v", got)
	}
}
