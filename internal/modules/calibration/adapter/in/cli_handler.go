package in

import (
	"context"

	"audiometer/internal/modules/calibration/dto"
	calibrationin "audiometer/internal/modules/calibration/port/in"
)

type CLIHandler struct {
	usecase calibrationin.Usecase
}

func NewCLIHandler(usecase calibrationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Begin(ctx context.Context, headphone string, startLevel float64) (dto.StepOutput, error) {
	return h.usecase.Begin(ctx, dto.BeginInput{Headphone: headphone, StartLevel: startLevel})
}

func (h CLIHandler) Advance(ctx context.Context) (dto.StepOutput, error) {
	return h.usecase.Advance(ctx)
}

func (h CLIHandler) Repeat(ctx context.Context) (dto.StepOutput, error) {
	return h.usecase.Repeat(ctx)
}

func (h CLIHandler) Measure(ctx context.Context, raw string) (dto.MeasurementOutput, error) {
	return h.usecase.SetMeasurement(ctx, raw)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Finalize(ctx context.Context) (dto.ProfileOutput, error) {
	return h.usecase.Finalize(ctx)
}

func (h CLIHandler) Profile(ctx context.Context) (dto.ProfileOutput, error) {
	return h.usecase.Profile(ctx)
}

func (h CLIHandler) Headphones(ctx context.Context) ([]string, error) {
	return h.usecase.Headphones(ctx)
}
