package params

import (
	"log/slog"
	"sync"

	"github.com/GriffinCanCode/asciicam/internal/syncx"
)

type versioned struct {
	params  Params
	version uint64
}

// Store holds the current parameter set. Readers take immutable snapshots;
// every change bumps a version and notifies subscribers.
type Store struct {
	state *syncx.RWGuard[versioned]

	mu   sync.Mutex
	subs map[chan Params]struct{}
}

// NewStore creates a store seeded with initial, clamped into its domain.
func NewStore(initial Params) *Store {
	return &Store{
		state: syncx.NewGuard(versioned{params: Clamp(initial)}),
		subs:  make(map[chan Params]struct{}),
	}
}

// Snapshot returns the current parameters.
func (s *Store) Snapshot() Params {
	return s.state.Get().params
}

// Load returns the current parameters with their version.
func (s *Store) Load() (Params, uint64) {
	v := s.state.Get()
	return v.params, v.version
}

// Version returns the change counter.
func (s *Store) Version() uint64 {
	return s.state.Get().version
}

// Update mutates the parameters through fn and clamps the result.
func (s *Store) Update(fn func(*Params)) Params {
	changed := false
	next := s.state.Update(func(v *versioned) {
		p := v.params
		fn(&p)
		p = Clamp(p)
		if p != v.params {
			v.params = p
			v.version++
			changed = true
		}
	})
	if changed {
		s.publish(next.params)
	}
	return next.params
}

// Apply patches the current parameters and stores the result if it
// validates. A bad field rejects the whole patch. The read and the write
// happen under one lock, so concurrent patches never lose each other's fields.
func (s *Store) Apply(pt Patch) (Params, error) {
	var err error
	changed := false
	next := s.state.Update(func(v *versioned) {
		p := pt.Apply(v.params)
		if err = Validate(p); err != nil {
			return
		}
		if p != v.params {
			v.params = p
			v.version++
			changed = true
		}
	})
	if err != nil {
		return Params{}, err
	}
	if changed {
		s.publish(next.params)
	}
	return next.params, nil
}

// Replace validates p and stores it unchanged, or rejects it.
func (s *Store) Replace(p Params) error {
	if err := Validate(p); err != nil {
		return err
	}
	changed := false
	s.state.Update(func(v *versioned) {
		if p != v.params {
			v.params = p
			v.version++
			changed = true
		}
	})
	if changed {
		s.publish(p)
	}
	return nil
}

// Subscribe returns a channel carrying the latest parameters after each
// change. Slow subscribers only see the newest value. Call the returned
// function to unsubscribe.
func (s *Store) Subscribe() (<-chan Params, func()) {
	ch := make(chan Params, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) publish(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- p:
		default:
			// Replace the stale value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
				slog.Debug("params subscriber dropped update")
			}
		}
	}
}
