package out

import (
	"context"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/calibration/domain"
)

type ProfileStore interface {
	Load(ctx context.Context) (*domain.Profile, error)
	Replace(ctx context.Context, profile *domain.Profile) error
}

type ReferenceSource interface {
	Load(ctx context.Context, headphone string) (domain.ReferenceTable, error)
	Headphones(ctx context.Context) ([]string, error)
}

// TonePlayer starts a tone without blocking; Stop silences it.
type TonePlayer interface {
	Play(frequency int, amplitude float64, duration time.Duration, channel audiogram.Ear) error
	Stop() error
}
