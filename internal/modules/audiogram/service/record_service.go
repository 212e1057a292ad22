package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"audiometer/internal/modules/audiogram/domain"
	audiogramout "audiometer/internal/modules/audiogram/port/out"
	"audiometer/internal/platform/clock"
	apperrors "audiometer/internal/platform/errors"
	"audiometer/internal/platform/logging"
	"audiometer/internal/platform/slug"
)

type RecordService struct {
	clock       clock.Clock
	store       audiogramout.RecordStore
	index       audiogramout.RecordIndex
	archiver    audiogramout.Archiver
	settings    audiogramout.SettingsStore
	defaultRoot string
	logger      hclog.Logger
}

// NewRecordService wires the record stores. index and archiver are optional.
func NewRecordService(
	clk clock.Clock,
	store audiogramout.RecordStore,
	index audiogramout.RecordIndex,
	archiver audiogramout.Archiver,
	settings audiogramout.SettingsStore,
	defaultRoot string,
	logger hclog.Logger,
) *RecordService {
	return &RecordService{
		clock:       clk,
		store:       store,
		index:       index,
		archiver:    archiver,
		settings:    settings,
		defaultRoot: defaultRoot,
		logger:      logging.OrNull(logger).Named("records"),
	}
}

func (s *RecordService) Save(ctx context.Context, record domain.Record) (string, bool, error) {
	root, err := s.root(ctx)
	if err != nil {
		return "", false, err
	}
	record.UpdatedAt = s.clock.Now()
	p, err := s.store.Save(ctx, root, record)
	if err != nil {
		return "", false, err
	}
	if s.index != nil {
		if err := s.index.Upsert(ctx, domain.Summarize(record, p)); err != nil {
			return "", false, err
		}
	}
	archived := false
	if s.archiver != nil {
		key := path.Join(slug.Subject(record.Metadata.SubjectID), "audiogram.csv")
		if err := s.archiver.Archive(ctx, key, p); err != nil {
			s.logger.Warn("archive record failed", "subject", record.Metadata.SubjectID, "error", err)
		} else {
			archived = true
		}
	}
	s.logger.Info("record saved", "subject", record.Metadata.SubjectID, "path", p)
	return p, archived, nil
}

func (s *RecordService) Load(ctx context.Context, subjectID string) (domain.Record, error) {
	root, err := s.root(ctx)
	if err != nil {
		return domain.Record{}, err
	}
	return s.store.Load(ctx, root, subjectID)
}

func (s *RecordService) List(ctx context.Context) ([]domain.Summary, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.List(ctx)
}

func (s *RecordService) Settings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return domain.Settings{}, err
	}
	if settings.SavePath == "" {
		settings.SavePath = s.defaultRoot
	}
	return settings, nil
}

func (s *RecordService) UpdateSettings(ctx context.Context, savePath, theme string) (domain.Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if p := strings.TrimSpace(savePath); p != "" {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return domain.Settings{}, fmt.Errorf("create save path: %w", err)
		}
		current.SavePath = p
	}
	if t := strings.TrimSpace(theme); t != "" {
		current.Theme = t
	}
	if err := s.settings.Save(ctx, current); err != nil {
		return domain.Settings{}, err
	}
	return current, nil
}

func (s *RecordService) root(ctx context.Context) (string, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}
	return settings.SavePath, nil
}
