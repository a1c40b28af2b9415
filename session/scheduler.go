package session

import (
	"math/rand"
	"sync"
	"time"
)

// Scheduler runs delayed one-shot callbacks keyed by an idempotency key.
// Timers are owned by the scheduler, so closing it on session teardown
// cancels everything still pending: no timers leak across chat switches.
type Scheduler struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	fired    map[string]bool
	minDelay time.Duration
	maxDelay time.Duration
	closed   bool
}

// NewScheduler creates a scheduler whose delays are drawn uniformly from
// [minDelay, maxDelay].
func NewScheduler(minDelay, maxDelay time.Duration) *Scheduler {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Scheduler{
		timers:   map[string]*time.Timer{},
		fired:    map[string]bool{},
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Schedule registers fn to run once after a randomized delay. Returns false
// when the key is already scheduled, already fired, or the scheduler is
// closed. The callback runs on the timer goroutine.
func (s *Scheduler) Schedule(key string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.fired[key] {
		return false
	}
	if _, ok := s.timers[key]; ok {
		return false
	}

	delay := s.minDelay
	if jitter := s.maxDelay - s.minDelay; jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.fired[key] = true
		s.mu.Unlock()
		fn()
	})
	return true
}

// Cancel stops a pending callback. Fired or unknown keys are a no-op.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Close cancels all pending callbacks. The scheduler cannot be reused.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}
