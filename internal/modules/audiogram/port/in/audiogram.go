package in

import (
	"context"

	"audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/audiogram/dto"
)

type Usecase interface {
	SaveRecord(ctx context.Context, input dto.SaveRecordInput) (dto.SaveRecordOutput, error)
	LoadRecord(ctx context.Context, subjectID string) (domain.Record, error)
	GetRecord(ctx context.Context, subjectID string) (dto.RecordOutput, error)
	ListRecords(ctx context.Context) ([]dto.SummaryOutput, error)
	GetSettings(ctx context.Context) (dto.SettingsOutput, error)
	UpdateSettings(ctx context.Context, input dto.UpdateSettingsInput) (dto.SettingsOutput, error)
}
