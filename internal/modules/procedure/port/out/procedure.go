package out

import (
	"context"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	stimulus "audiometer/internal/modules/stimulus/domain"
)

type Presenter interface {
	Present(ctx context.Context, tone stimulus.Tone, amplitude float64) (bool, error)
}

type LevelConverter interface {
	ToDriveLevel(levelHL float64, freq int, ear audiogram.Ear, useCalibration bool) (float64, error)
}

type ConverterSource interface {
	LoadConverter(ctx context.Context, headphone string, useCalibration bool) (LevelConverter, error)
}

// RecordStore loads and persists the record of one subject. Load reports
// apperrors.ErrNotFound when the subject has no record yet.
type RecordStore interface {
	Load(ctx context.Context, subjectID string) (audiogram.Record, error)
	Save(ctx context.Context, record audiogram.Record) (string, error)
}

type SessionSource interface {
	Active(ctx context.Context) (domain.Subject, error)
}
