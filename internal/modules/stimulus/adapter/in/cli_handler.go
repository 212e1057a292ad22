package in

import (
	"context"
	"time"

	"audiometer/internal/modules/stimulus/dto"
	stimulusin "audiometer/internal/modules/stimulus/port/in"
)

type CLIHandler struct {
	usecase stimulusin.Usecase
}

func NewCLIHandler(usecase stimulusin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Present plays a single tone at an already converted amplitude.
func (h CLIHandler) Present(ctx context.Context, frequency int, level, amplitude float64, duration time.Duration, ear string) (bool, error) {
	out, err := h.usecase.Present(ctx, dto.PresentInput{
		Frequency: frequency,
		Level:     level,
		Duration:  duration,
		Ear:       ear,
		Amplitude: amplitude,
	})
	if err != nil {
		return false, err
	}
	return out.Heard, nil
}
