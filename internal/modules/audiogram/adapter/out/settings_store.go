package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"audiometer/internal/modules/audiogram/domain"
	audiogramout "audiometer/internal/modules/audiogram/port/out"
	apperrors "audiometer/internal/platform/errors"
)

type FileSettingsStore struct {
	path string
}

func NewFileSettingsStore(dataDir string) audiogramout.SettingsStore {
	return &FileSettingsStore{path: filepath.Join(dataDir, ".audiometer", "settings.json")}
}

func (s *FileSettingsStore) Save(_ context.Context, settings domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *FileSettingsStore) Load(_ context.Context) (domain.Settings, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Settings{}, apperrors.ErrNotFound
		}
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	settings := domain.Settings{}
	if err := json.Unmarshal(payload, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}
