package usecase

import (
	"context"
	"fmt"

	"audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/audiogram/dto"
	audiogramin "audiometer/internal/modules/audiogram/port/in"
	"audiometer/internal/modules/audiogram/service"
)

type Interactor struct {
	svc *service.RecordService
}

func NewInteractor(svc *service.RecordService) audiogramin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) SaveRecord(ctx context.Context, input dto.SaveRecordInput) (dto.SaveRecordOutput, error) {
	path, archived, err := i.svc.Save(ctx, input.Record)
	if err != nil {
		return dto.SaveRecordOutput{}, fmt.Errorf("save record: %w", err)
	}
	return dto.SaveRecordOutput{SubjectID: input.Record.Metadata.SubjectID, Path: path, Archived: archived}, nil
}

func (i *Interactor) LoadRecord(ctx context.Context, subjectID string) (domain.Record, error) {
	return i.svc.Load(ctx, subjectID)
}

func (i *Interactor) GetRecord(ctx context.Context, subjectID string) (dto.RecordOutput, error) {
	record, err := i.svc.Load(ctx, subjectID)
	if err != nil {
		return dto.RecordOutput{}, err
	}
	return toRecordOutput(record), nil
}

func (i *Interactor) ListRecords(ctx context.Context) ([]dto.SummaryOutput, error) {
	summaries, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SummaryOutput, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, dto.SummaryOutput{
			SubjectID: s.SubjectID,
			Path:      s.Path,
			UpdatedAt: s.UpdatedAt,
			Measured:  s.Measured,
			NotHeard:  s.NotHeard,
		})
	}
	return out, nil
}

func (i *Interactor) GetSettings(ctx context.Context) (dto.SettingsOutput, error) {
	settings, err := i.svc.Settings(ctx)
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return dto.SettingsOutput{SavePath: settings.SavePath, Theme: settings.Theme}, nil
}

func (i *Interactor) UpdateSettings(ctx context.Context, input dto.UpdateSettingsInput) (dto.SettingsOutput, error) {
	settings, err := i.svc.UpdateSettings(ctx, input.SavePath, input.Theme)
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return dto.SettingsOutput{SavePath: settings.SavePath, Theme: settings.Theme}, nil
}

func toRecordOutput(record domain.Record) dto.RecordOutput {
	out := dto.RecordOutput{
		SubjectID:   record.Metadata.SubjectID,
		Frequencies: append([]int(nil), domain.Frequencies...),
		UpdatedAt:   record.UpdatedAt,
	}
	for _, a := range record.Metadata.Attributes {
		out.Attributes = append(out.Attributes, dto.AttributeOutput{Key: a.Key, Value: a.Value})
	}
	for _, cell := range record.Row(domain.EarLeft) {
		out.Left = append(out.Left, cell.String())
	}
	for _, cell := range record.Row(domain.EarRight) {
		out.Right = append(out.Right, cell.String())
	}
	return out
}
