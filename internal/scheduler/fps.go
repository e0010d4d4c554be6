package scheduler

import (
	"math"
	"time"
)

// fpsMeter turns the gap between consecutive renders into frames per second.
type fpsMeter struct {
	last time.Time
	fps  int
}

func (m *fpsMeter) mark(now time.Time) int {
	if !m.last.IsZero() {
		if delta := now.Sub(m.last); delta > 0 {
			m.fps = int(math.Round(float64(time.Second) / float64(delta)))
		}
	}
	m.last = now
	return m.fps
}
