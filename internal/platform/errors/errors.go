package apperrors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("active session already exists")

	ErrMissingCalibrationData  = errors.New("missing calibration data")
	ErrNonConvergent           = errors.New("threshold search did not converge")
	ErrFamiliarizationFailed   = errors.New("familiarization failed")
	ErrInvalidMeasurementInput = errors.New("invalid measurement input")
	ErrCalibrationIncomplete   = errors.New("calibration sequence is not complete")
	ErrNoCalibrationRun        = errors.New("no calibration run in progress")
	ErrProcedureBusy           = errors.New("another procedure is running")
)
