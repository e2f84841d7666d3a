package overlay

import (
	"sync"
	"time"
)

// defaultFrameInterval approximates one animation frame at 60Hz.
const defaultFrameInterval = 16 * time.Millisecond

// frameScheduler coalesces bursts of scroll/resize events into at most one
// callback per frame interval, the way requestAnimationFrame batches layout
// work.
type frameScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
}

func newFrameScheduler(interval time.Duration) *frameScheduler {
	return &frameScheduler{interval: interval}
}

// Schedule runs fn after the frame interval. Calls landing while a frame is
// already pending are absorbed; only the first caller's fn runs.
func (s *frameScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return
	}
	s.pending = true
	s.timer = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
		fn()
	})
}

// Stop cancels any pending frame.
func (s *frameScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = false
}
