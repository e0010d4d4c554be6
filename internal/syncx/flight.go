package syncx

import "sync"

// Flight runs a function on at most one goroutine at a time. Requests that
// arrive while a run is in progress collapse into a single pending rerun
// (a queue of one); they never run concurrently.
type Flight struct {
	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

// Go starts fn on a new goroutine unless a run is already in progress, in
// which case one rerun is queued. Reports whether a goroutine was started.
func (f *Flight) Go(fn func()) bool {
	f.mu.Lock()
	if f.running {
		f.pending = true
		f.mu.Unlock()
		return false
	}
	f.running = true
	f.wg.Add(1)
	f.mu.Unlock()

	go func() {
		defer f.wg.Done()
		f.loop(fn)
	}()
	return true
}

// Do runs fn on the calling goroutine with the same coalescing as Go.
// Reports false when the call was folded into an in-progress run.
func (f *Flight) Do(fn func()) bool {
	f.mu.Lock()
	if f.running {
		f.pending = true
		f.mu.Unlock()
		return false
	}
	f.running = true
	f.wg.Add(1)
	f.mu.Unlock()

	defer f.wg.Done()
	f.loop(fn)
	return true
}

func (f *Flight) loop(fn func()) {
	for {
		fn()
		f.mu.Lock()
		if !f.pending {
			f.running = false
			f.mu.Unlock()
			return
		}
		f.pending = false
		f.mu.Unlock()
	}
}

// Busy reports whether a run is in progress.
func (f *Flight) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Drop discards a queued rerun, if any.
func (f *Flight) Drop() {
	f.mu.Lock()
	f.pending = false
	f.mu.Unlock()
}

// Wait blocks until no run is in progress.
func (f *Flight) Wait() {
	f.wg.Wait()
}
