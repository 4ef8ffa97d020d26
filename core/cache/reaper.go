package cache

import (
	"log/slog"
	"time"
)

// reaperBackoff is the pause after a failed sweep before the loop rearms.
var reaperBackoff = 5 * time.Second

// StartReaper launches the background sweep loop that removes expired
// entries every cleanup interval. Starting an already running reaper is a
// no-op.
func (s *Store) StartReaper() {
	s.reaperMu.Lock()
	defer s.reaperMu.Unlock()

	if s.reaperStop != nil {
		return
	}
	s.reaperStop = make(chan struct{})
	s.reaperDone = make(chan struct{})
	go s.reap(s.reaperStop, s.reaperDone)
	s.cfg.log.Debug("reaper started", slog.Duration("interval", s.cfg.cleanupInterval))
}

// StopReaper cancels the loop, including a pending wait, and returns once
// the goroutine has exited. Stopping a stopped reaper is a no-op.
func (s *Store) StopReaper() {
	s.reaperMu.Lock()
	defer s.reaperMu.Unlock()

	if s.reaperStop == nil {
		return
	}
	close(s.reaperStop)
	<-s.reaperDone
	s.reaperStop = nil
	s.reaperDone = nil
	s.cfg.log.Debug("reaper stopped")
}

func (s *Store) reap(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.cfg.cleanupInterval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		if !s.sweep() {
			select {
			case <-stop:
				return
			case <-time.After(reaperBackoff):
			}
		}
		timer.Reset(s.cfg.cleanupInterval)
	}
}

// sweep runs one cleanup pass. It reports false when the pass panicked so
// the loop backs off instead of dying.
func (s *Store) sweep() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.cfg.log.Error("cache sweep panic", slog.Any("recovered", r))
		}
	}()

	if n := s.CleanupExpired(); n > 0 {
		s.cfg.log.Info("cache sweep", slog.Int("removed", n))
	}
	return true
}
