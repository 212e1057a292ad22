package domain_test

import (
	"errors"
	"testing"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/calibration/domain"
	apperrors "audiometer/internal/platform/errors"
)

func TestCursorVisitsLeftThenRightAscending(t *testing.T) {
	t.Parallel()
	cursor := domain.NewCursor()
	var got []domain.Step
	for {
		step, ok := cursor.Next()
		if !ok {
			break
		}
		got = append(got, step)
	}
	if len(got) != 14 || !cursor.Exhausted() {
		t.Fatalf("expected 14 steps and exhaustion, got %d", len(got))
	}
	for i, step := range got {
		wantEar := audiogram.EarLeft
		if i >= 7 {
			wantEar = audiogram.EarRight
		}
		if step.Ear != wantEar || step.Frequency != audiogram.Frequencies[i%7] {
			t.Fatalf("step %d: expected %s %d Hz, got %+v", i, wantEar, audiogram.Frequencies[i%7], step)
		}
	}
	if _, ok := cursor.Next(); ok {
		t.Fatalf("exhausted cursor must not yield")
	}
}

func TestRunMeasureAndProfile(t *testing.T) {
	t.Parallel()
	run := domain.NewRun(60, testReference())
	if _, _, err := run.Measure("65"); !errors.Is(err, apperrors.ErrNoCalibrationRun) {
		t.Fatalf("measure before first step should fail, got %v", err)
	}
	run.Cursor.Next()
	if _, _, err := run.Measure("sixty"); !errors.Is(err, apperrors.ErrInvalidMeasurementInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if run.Measured() != 0 {
		t.Fatalf("invalid input must not store a measurement")
	}
	step, offset, err := run.Measure("92,5")
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	// 125 Hz: expected 60 + 30.5
	if step.Frequency != 125 || offset != 2 {
		t.Fatalf("unexpected measurement %+v offset %g", step, offset)
	}
	if _, err := run.Profile(); !errors.Is(err, apperrors.ErrCalibrationIncomplete) {
		t.Fatalf("expected incomplete, got %v", err)
	}
}
