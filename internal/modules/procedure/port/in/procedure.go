package in

import (
	"context"

	"audiometer/internal/modules/procedure/dto"
)

type Usecase interface {
	// Run blocks until the procedure ends. Only one procedure runs at a time.
	Run(ctx context.Context, input dto.RunInput) (dto.RunOutput, error)
	Progress() dto.ProgressOutput
	// Skip cuts the running procedure short. It reports false when nothing
	// is running or skipping is disabled.
	Skip() bool
}
