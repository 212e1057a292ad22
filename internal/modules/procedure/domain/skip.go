package domain

import "sync/atomic"

// SkipToken lets a driver cut a running procedure short in test mode. It is
// checked before each presentation; a tone already playing finishes its
// listening window.
type SkipToken struct {
	triggered atomic.Bool
}

func (s *SkipToken) Trigger() {
	s.triggered.Store(true)
}

func (s *SkipToken) Triggered() bool {
	return s != nil && s.triggered.Load()
}
