package usecase

import (
	"context"
	"fmt"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/stimulus/domain"
	"audiometer/internal/modules/stimulus/dto"
	stimulusin "audiometer/internal/modules/stimulus/port/in"
	"audiometer/internal/modules/stimulus/service"
	apperrors "audiometer/internal/platform/errors"
)

type Interactor struct {
	presenter *service.Presenter
}

func NewInteractor(presenter *service.Presenter) stimulusin.Usecase {
	return &Interactor{presenter: presenter}
}

func (i *Interactor) Present(ctx context.Context, input dto.PresentInput) (dto.PresentOutput, error) {
	ear := audiogram.Ear(input.Ear)
	if err := ear.Validate(); err != nil {
		return dto.PresentOutput{}, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	if input.Duration <= 0 {
		return dto.PresentOutput{}, fmt.Errorf("tone duration must be positive: %w", apperrors.ErrInvalidInput)
	}
	heard, err := i.presenter.Present(ctx, domain.Tone{
		Frequency: input.Frequency,
		Level:     input.Level,
		Duration:  input.Duration,
		Ear:       ear,
	}, input.Amplitude)
	if err != nil {
		return dto.PresentOutput{}, err
	}
	return dto.PresentOutput{Heard: heard}, nil
}
