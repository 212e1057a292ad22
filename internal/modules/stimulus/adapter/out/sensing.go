package out

import (
	"sync"

	stimulusout "audiometer/internal/modules/stimulus/port/out"
)

// sensing tracks the single active detection callback of a sensor. Stopping
// a stale handle is a no-op.
type sensing struct {
	mu       sync.Mutex
	next     stimulusout.SensingHandle
	active   stimulusout.SensingHandle
	onDetect func()
}

func (s *sensing) start(onDetect func()) stimulusout.SensingHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.active = s.next
	s.onDetect = onDetect
	return s.active
}

func (s *sensing) stop(handle stimulusout.SensingHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle != s.active {
		return
	}
	s.active = 0
	s.onDetect = nil
}

// fire reports a detection and whether anyone was listening.
func (s *sensing) fire() bool {
	s.mu.Lock()
	cb := s.onDetect
	s.mu.Unlock()
	if cb == nil {
		return false
	}
	cb()
	return true
}
