package saga

import (
	"sync"
	"time"
)

// Scheduler runs a callback once a delay has passed unless the token is cancelled first.
type Scheduler interface {
	Schedule(token string, after time.Duration, fn func())
	Cancel(token string)
}

// TimerScheduler implements Scheduler on time.AfterFunc.
type TimerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewTimerScheduler constructs TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule replaces any pending callback registered under token.
func (s *TimerScheduler) Schedule(token string, after time.Duration, fn func()) {
	if after < 0 {
		after = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[token]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(after, func() {
		s.mu.Lock()
		current, ok := s.timers[token]
		if ok && current == timer {
			delete(s.timers, token)
		}
		s.mu.Unlock()
		if ok && current == timer {
			fn()
		}
	})
	s.timers[token] = timer
}

func (s *TimerScheduler) Cancel(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[token]; ok {
		t.Stop()
		delete(s.timers, token)
	}
}

// Pending reports how many callbacks are armed.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending callback and refuses new ones.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for token, t := range s.timers {
		t.Stop()
		delete(s.timers, token)
	}
}
