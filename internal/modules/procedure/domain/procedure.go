package domain

import (
	"context"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
)

const (
	KindFamiliarization = "familiarization"
	KindThresholdSearch = "threshold"
	KindScreening       = "screening"
)

func ValidKind(kind string) bool {
	switch kind {
	case KindFamiliarization, KindThresholdSearch, KindScreening:
		return true
	default:
		return false
	}
}

// Procedure is anything a driver can watch while it runs.
type Procedure interface {
	Kind() string
	Progress() float64
}

// Runner is a procedure that presents tones and produces a record.
type Runner interface {
	Procedure
	Run(ctx context.Context, skip *SkipToken) (Result, error)
}

// Settings are the level and timing parameters shared by all procedures.
// Levels are in dB HL.
type Settings struct {
	StartLevel     int
	MinLevel       int
	MaxLevel       int
	SkipLevel      int
	SignalDuration time.Duration
	UseCalibration bool
	Binaural       bool

	// ScreeningLevels holds the screening target per frequency.
	ScreeningLevels map[int]int
}

const DefaultScreeningLevel = 20

// ScreeningLevel is the target for freq, DefaultScreeningLevel when none is set.
func (s Settings) ScreeningLevel(freq int) int {
	if level, ok := s.ScreeningLevels[freq]; ok {
		return level
	}
	return DefaultScreeningLevel
}

// Subject is the listener a procedure runs for, taken from the active session.
type Subject struct {
	Metadata       audiogram.Metadata
	Headphone      string
	UseCalibration bool
}

type Result struct {
	Kind       string
	Success    bool
	Skipped    bool
	Record     audiogram.Record
	Path       string
	FailedEars []audiogram.Ear
	// Reason explains an unsuccessful result.
	Reason error
}
