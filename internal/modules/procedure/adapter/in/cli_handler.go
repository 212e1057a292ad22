package in

import (
	"context"

	"audiometer/internal/modules/procedure/dto"
	procedurein "audiometer/internal/modules/procedure/port/in"
)

type CLIHandler struct {
	usecase procedurein.Usecase
}

func NewCLIHandler(usecase procedurein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Run(ctx context.Context, kind string, binaural bool) (dto.RunOutput, error) {
	return h.usecase.Run(ctx, dto.RunInput{Kind: kind, Binaural: binaural})
}

func (h CLIHandler) Progress() dto.ProgressOutput {
	return h.usecase.Progress()
}

func (h CLIHandler) Skip() bool {
	return h.usecase.Skip()
}
