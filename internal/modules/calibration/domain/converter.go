package domain

import (
	"fmt"
	"math"

	audiogram "audiometer/internal/modules/audiogram/domain"
	apperrors "audiometer/internal/platform/errors"
)

// ReferenceAmplitude is the drive amplitude that corresponds to 0 dB SPL.
const ReferenceAmplitude = 0.00002

// Converter maps hearing levels to device drive amplitudes for one headphone.
type Converter struct {
	reference ReferenceTable
	profile   *Profile
}

// NewConverter builds a converter. profile may be nil when calibration is
// not used.
func NewConverter(reference ReferenceTable, profile *Profile) *Converter {
	return &Converter{reference: reference, profile: profile}
}

func (c *Converter) Headphone() string { return c.reference.Headphone }

func (c *Converter) ExpectedSPL(levelHL float64, freq int) (float64, error) {
	retspl, ok := c.reference.Lookup(freq)
	if !ok {
		return 0, fmt.Errorf("no reference level for %s at %d Hz: %w", c.reference.Headphone, freq, apperrors.ErrMissingCalibrationData)
	}
	return levelHL + retspl, nil
}

func (c *Converter) ToDriveLevel(levelHL float64, freq int, ear audiogram.Ear, useCalibration bool) (float64, error) {
	dbSPL, err := c.ExpectedSPL(levelHL, freq)
	if err != nil {
		return 0, err
	}
	if useCalibration {
		offset, ok := c.profile.Offset(ear, freq)
		if !ok {
			return 0, fmt.Errorf("no calibration offset for %s ear at %d Hz: %w", ear, freq, apperrors.ErrMissingCalibrationData)
		}
		dbSPL -= offset
	}
	return Amplitude(dbSPL), nil
}

func Amplitude(dbSPL float64) float64 {
	return ReferenceAmplitude * math.Pow(10, dbSPL/20)
}
