package out

import (
	"context"

	"audiometer/internal/modules/audiogram/domain"
)

// RecordStore persists one record per subject below root.
type RecordStore interface {
	Save(ctx context.Context, root string, record domain.Record) (string, error)
	Load(ctx context.Context, root, subjectID string) (domain.Record, error)
}

type RecordIndex interface {
	Upsert(ctx context.Context, summary domain.Summary) error
	List(ctx context.Context) ([]domain.Summary, error)
}

// Archiver copies a persisted record file to off-site storage.
type Archiver interface {
	Archive(ctx context.Context, key, path string) error
}

type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}
