package session

import (
	"sync"
	"time"
)

// scheduler defers at most one pending function. Scheduling again or
// cancelling invalidates whatever was queued, so a decision computed
// against an old state can never be applied after a restart.
type scheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	epoch uint64
}

// schedule queues fn to run after delay, replacing any pending run.
func (s *scheduler) schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
	epoch := s.epoch
	if delay <= 0 {
		go s.run(epoch, fn)
		return
	}
	s.timer = time.AfterFunc(delay, func() { s.run(epoch, fn) })
}

func (s *scheduler) run(epoch uint64, fn func()) {
	s.mu.Lock()
	live := epoch == s.epoch
	s.mu.Unlock()
	if live {
		fn()
	}
}

// cancel drops any pending run.
func (s *scheduler) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
}
