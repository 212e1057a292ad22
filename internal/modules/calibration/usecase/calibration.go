package usecase

import (
	"context"
	"fmt"

	"audiometer/internal/modules/calibration/domain"
	"audiometer/internal/modules/calibration/dto"
	calibrationin "audiometer/internal/modules/calibration/port/in"
	calibrationout "audiometer/internal/modules/calibration/port/out"
	"audiometer/internal/modules/calibration/service"
)

type Interactor struct {
	svc        *service.Calibration
	references calibrationout.ReferenceSource
	profiles   calibrationout.ProfileStore
}

func NewInteractor(svc *service.Calibration, references calibrationout.ReferenceSource, profiles calibrationout.ProfileStore) calibrationin.Usecase {
	return &Interactor{svc: svc, references: references, profiles: profiles}
}

func (i *Interactor) LoadConverter(ctx context.Context, headphone string, useCalibration bool) (*domain.Converter, error) {
	reference, err := i.references.Load(ctx, headphone)
	if err != nil {
		return nil, err
	}
	if !useCalibration {
		return domain.NewConverter(reference, nil), nil
	}
	profile, err := i.profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load calibration profile: %w", err)
	}
	return domain.NewConverter(reference, profile), nil
}

func (i *Interactor) Headphones(ctx context.Context) ([]string, error) {
	return i.references.Headphones(ctx)
}

func (i *Interactor) Begin(ctx context.Context, input dto.BeginInput) (dto.StepOutput, error) {
	reference, err := i.references.Load(ctx, input.Headphone)
	if err != nil {
		return dto.StepOutput{}, err
	}
	if _, err := i.svc.Start(input.StartLevel, reference); err != nil {
		return dto.StepOutput{}, err
	}
	return i.stepOutput(false), nil
}

func (i *Interactor) Advance(_ context.Context) (dto.StepOutput, error) {
	_, ok, err := i.svc.Advance()
	if err != nil {
		return dto.StepOutput{}, err
	}
	return i.stepOutput(!ok), nil
}

func (i *Interactor) Repeat(_ context.Context) (dto.StepOutput, error) {
	if _, err := i.svc.Repeat(); err != nil {
		return dto.StepOutput{}, err
	}
	return i.stepOutput(false), nil
}

func (i *Interactor) SetMeasurement(_ context.Context, raw string) (dto.MeasurementOutput, error) {
	step, offset, err := i.svc.SetMeasurement(raw)
	if err != nil {
		return dto.MeasurementOutput{}, err
	}
	return dto.MeasurementOutput{Frequency: step.Frequency, Ear: string(step.Ear), Offset: offset}, nil
}

func (i *Interactor) Stop(_ context.Context) error {
	return i.svc.Stop()
}

func (i *Interactor) Finalize(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.svc.Finalize(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toProfileOutput(profile), nil
}

func (i *Interactor) Profile(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.profiles.Load(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toProfileOutput(profile), nil
}

func (i *Interactor) Progress() float64 {
	return i.svc.Progress()
}

func (i *Interactor) stepOutput(exhausted bool) dto.StepOutput {
	pos, total := i.svc.Position()
	out := dto.StepOutput{Position: pos, Total: total, Exhausted: exhausted, Progress: i.svc.Progress()}
	if step, expected, ok := i.svc.Current(); ok {
		out.Frequency = step.Frequency
		out.Ear = string(step.Ear)
		out.ExpectedSPL = expected
	}
	return out
}

func toProfileOutput(profile *domain.Profile) dto.ProfileOutput {
	out := dto.ProfileOutput{}
	for _, e := range profile.Entries() {
		out.Offsets = append(out.Offsets, dto.OffsetOutput{Ear: string(e.Ear), Frequency: e.Frequency, Offset: e.Offset})
	}
	return out
}
