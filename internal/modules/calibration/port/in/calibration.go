package in

import (
	"context"

	"audiometer/internal/modules/calibration/domain"
	"audiometer/internal/modules/calibration/dto"
)

type Usecase interface {
	LoadConverter(ctx context.Context, headphone string, useCalibration bool) (*domain.Converter, error)
	Headphones(ctx context.Context) ([]string, error)
	Begin(ctx context.Context, input dto.BeginInput) (dto.StepOutput, error)
	Advance(ctx context.Context) (dto.StepOutput, error)
	Repeat(ctx context.Context) (dto.StepOutput, error)
	SetMeasurement(ctx context.Context, raw string) (dto.MeasurementOutput, error)
	Stop(ctx context.Context) error
	Finalize(ctx context.Context) (dto.ProfileOutput, error)
	Profile(ctx context.Context) (dto.ProfileOutput, error)
	Progress() float64
}
