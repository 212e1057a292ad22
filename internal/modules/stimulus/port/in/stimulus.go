package in

import (
	"context"

	"audiometer/internal/modules/stimulus/dto"
)

type Usecase interface {
	Present(ctx context.Context, input dto.PresentInput) (dto.PresentOutput, error)
}
