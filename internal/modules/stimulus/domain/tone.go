package domain

import (
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
)

const (
	// ListenWindow is how long a response is accepted, measured from tone onset.
	ListenWindow = 4000 * time.Millisecond
	PollInterval = 50 * time.Millisecond
	PauseMin     = 1000 * time.Millisecond
	PauseMax     = 2500 * time.Millisecond
)

// Tone is one presentation: level in dB HL, played on one ear or both.
type Tone struct {
	Frequency int
	Level     float64
	Duration  time.Duration
	Ear       audiogram.Ear
}
