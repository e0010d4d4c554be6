package params

import (
	"sync"
	"testing"

	"github.com/GriffinCanCode/asciicam/internal/charset"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
)

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(Default())
	p := s.Snapshot()
	p.Resolution = 9

	if s.Snapshot().Resolution != DefaultResolution {
		t.Error("mutating a snapshot changed the store")
	}
}

func TestStoreUpdateClampsAndVersions(t *testing.T) {
	s := NewStore(Default())
	v0 := s.Version()

	got := s.Update(func(p *Params) { p.Resolution = 99 })
	if got.Resolution != MaxResolution {
		t.Errorf("Update() resolution = %d, want %d", got.Resolution, MaxResolution)
	}
	if s.Version() != v0+1 {
		t.Errorf("Version() = %d, want %d", s.Version(), v0+1)
	}

	// No-op update leaves the version alone.
	s.Update(func(p *Params) { p.Resolution = MaxResolution })
	if s.Version() != v0+1 {
		t.Errorf("no-op update bumped version to %d", s.Version())
	}
}

func TestStoreReplaceValidates(t *testing.T) {
	s := NewStore(Default())

	bad := Default()
	bad.Zoom = 10
	if err := s.Replace(bad); err == nil {
		t.Fatal("Replace() should reject zoom 10")
	}
	if s.Snapshot().Zoom != DefaultZoom {
		t.Error("rejected Replace changed the store")
	}

	good := Default()
	good.CharSet = charset.Matrix
	if err := s.Replace(good); err != nil {
		t.Fatalf("Replace() = %v", err)
	}
	if p, v := s.Load(); p.CharSet != charset.Matrix || v != 1 {
		t.Errorf("Load() = %+v, %d", p, v)
	}
}

func TestStoreSubscribeLatestWins(t *testing.T) {
	s := NewStore(Default())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Update(func(p *Params) { p.Brightness = 10 })
	s.Update(func(p *Params) { p.Brightness = 20 })
	s.Update(func(p *Params) { p.Brightness = 30 })

	got := <-ch
	if got.Brightness != 30 {
		t.Errorf("subscriber saw brightness %d, want 30", got.Brightness)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra update %+v", extra)
	default:
	}
}

func TestStoreUnsubscribe(t *testing.T) {
	s := NewStore(Default())
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	s.Update(func(p *Params) { p.Invert = true })
	select {
	case <-ch:
		t.Error("unsubscribed channel received an update")
	default:
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore(Default())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Update(func(p *Params) { p.Brightness = i - 25 })
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	if err := Validate(s.Snapshot()); err != nil {
		t.Errorf("store ended invalid: %v", err)
	}
}

func TestStoreApplyPatch(t *testing.T) {
	s := NewStore(Default())
	res, zoom := 7, 2.5

	got, err := s.Apply(Patch{Resolution: &res, Zoom: &zoom})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Resolution != 7 || got.Zoom != 2.5 || s.Version() != 1 {
		t.Errorf("Apply() = %+v, version %d", got, s.Version())
	}

	bad := 99
	if _, err := s.Apply(Patch{Resolution: &bad, Zoom: &zoom}); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Errorf("Apply(bad) error = %v, want INVALID_ARGUMENT", err)
	}
	if s.Snapshot() != got || s.Version() != 1 {
		t.Error("rejected patch changed the store")
	}
}

func TestStoreApplyConcurrentFields(t *testing.T) {
	s := NewStore(Default())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			inv := true
			_, _ = s.Apply(Patch{Invert: &inv})
		}()
		go func(i int) {
			defer wg.Done()
			b := i
			_, _ = s.Apply(Patch{Brightness: &b})
		}(i)
	}
	wg.Wait()

	if !s.Snapshot().Invert {
		t.Error("a concurrent patch lost the invert field")
	}
}
