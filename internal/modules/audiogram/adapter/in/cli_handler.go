package in

import (
	"context"

	"audiometer/internal/modules/audiogram/dto"
	audiogramin "audiometer/internal/modules/audiogram/port/in"
)

type CLIHandler struct {
	usecase audiogramin.Usecase
}

func NewCLIHandler(usecase audiogramin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ShowRecord(ctx context.Context, subjectID string) (dto.RecordOutput, error) {
	return h.usecase.GetRecord(ctx, subjectID)
}

func (h CLIHandler) ListRecords(ctx context.Context) ([]dto.SummaryOutput, error) {
	return h.usecase.ListRecords(ctx)
}

func (h CLIHandler) Settings(ctx context.Context) (dto.SettingsOutput, error) {
	return h.usecase.GetSettings(ctx)
}

func (h CLIHandler) UpdateSettings(ctx context.Context, savePath, theme string) (dto.SettingsOutput, error) {
	return h.usecase.UpdateSettings(ctx, dto.UpdateSettingsInput{SavePath: savePath, Theme: theme})
}
