package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "audiometer/internal/platform/errors"
)

// ToneDuration is how long a calibration tone sounds so it can be read off a
// sound level meter. Stop silences it early.
const ToneDuration = 30 * time.Second

// Run is one calibration sweep in progress. Measurements stay here until the
// sweep is finalized.
type Run struct {
	StartLevel   float64
	Reference    ReferenceTable
	Cursor       *Cursor
	measurements map[Step]float64
}

func NewRun(startLevel float64, reference ReferenceTable) *Run {
	return &Run{
		StartLevel:   startLevel,
		Reference:    reference,
		Cursor:       NewCursor(),
		measurements: map[Step]float64{},
	}
}

func (r *Run) ExpectedSPL(step Step) (float64, error) {
	return NewConverter(r.Reference, nil).ExpectedSPL(r.StartLevel, step.Frequency)
}

// Measure parses a sound level meter reading for the current step and keeps
// the resulting offset.
func (r *Run) Measure(raw string) (Step, float64, error) {
	step, ok := r.Cursor.Current()
	if !ok {
		return Step{}, 0, apperrors.ErrNoCalibrationRun
	}
	measured, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")), 64)
	if err != nil {
		return Step{}, 0, fmt.Errorf("%q: %w", raw, apperrors.ErrInvalidMeasurementInput)
	}
	expected, err := r.ExpectedSPL(step)
	if err != nil {
		return Step{}, 0, err
	}
	offset := measured - expected
	r.measurements[step] = offset
	return step, offset, nil
}

func (r *Run) Measured() int { return len(r.measurements) }

// Profile returns the finished profile once every step has been yielded and
// measured.
func (r *Run) Profile() (*Profile, error) {
	if !r.Cursor.Exhausted() || len(r.measurements) != r.Cursor.Len() {
		return nil, fmt.Errorf("%d of %d steps measured: %w", len(r.measurements), r.Cursor.Len(), apperrors.ErrCalibrationIncomplete)
	}
	p := NewProfile()
	for step, offset := range r.measurements {
		p.Set(step.Ear, step.Frequency, offset)
	}
	return p, nil
}

func (r *Run) Progress() float64 {
	return float64(r.Cursor.Position()) / float64(r.Cursor.Len())
}
