package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiometer/internal/modules/session/domain"
	sessionout "audiometer/internal/modules/session/port/out"
	apperrors "audiometer/internal/platform/errors"
)

const activeSessionFileName = "active-session.json"

// activeSessionFile is the on-disk form of the running session.
type activeSessionFile struct {
	Version   int             `json:"version"`
	SessionID string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	Subject   activeSubject   `json:"subject"`
	Equipment activeEquipment `json:"equipment"`
}

type activeSubject struct {
	ID         string            `json:"id"`
	Attributes []activeAttribute `json:"attributes,omitempty"`
}

type activeAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type activeEquipment struct {
	Headphone      string `json:"headphone"`
	UseCalibration bool   `json:"use_calibration"`
}

// FileActiveSessionStore keeps the running session in
// dataDir/.audiometer/active-session.json so it survives between commands.
type FileActiveSessionStore struct {
	path string
}

func NewFileActiveSessionStore(dataDir string) sessionout.ActiveSessionStore {
	return &FileActiveSessionStore{path: filepath.Join(dataDir, ".audiometer", activeSessionFileName)}
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	file := activeSessionFile{
		Version:   domain.SchemaVersion,
		SessionID: session.SessionID,
		StartedAt: session.StartedAt.UTC(),
		Subject:   activeSubject{ID: session.SubjectID},
		Equipment: activeEquipment{Headphone: session.Headphone, UseCalibration: session.UseCalibration},
	}
	for _, a := range session.Attributes {
		file.Subject.Attributes = append(file.Subject.Attributes, activeAttribute{Key: a.Key, Value: a.Value})
	}
	if err := file.validate(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create active session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) LoadActive(_ context.Context) (domain.ActiveSession, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ActiveSession{}, apperrors.ErrNoActiveSession
		}
		return domain.ActiveSession{}, fmt.Errorf("read active session: %w", err)
	}
	var file activeSessionFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("decode active session: %w", err)
	}
	if file.SessionID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	if file.Version != domain.SchemaVersion {
		return domain.ActiveSession{}, fmt.Errorf("active session version %d, want %d: %w", file.Version, domain.SchemaVersion, apperrors.ErrInvalidInput)
	}
	if err := file.validate(); err != nil {
		return domain.ActiveSession{}, err
	}

	active := domain.ActiveSession{
		SessionID:      file.SessionID,
		SubjectID:      file.Subject.ID,
		Headphone:      file.Equipment.Headphone,
		UseCalibration: file.Equipment.UseCalibration,
		StartedAt:      file.StartedAt,
	}
	for _, a := range file.Subject.Attributes {
		active.Attributes = append(active.Attributes, domain.Attribute{Key: a.Key, Value: a.Value})
	}
	return active, nil
}

func (s *FileActiveSessionStore) ClearActive(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

func (f activeSessionFile) validate() error {
	if strings.TrimSpace(f.Equipment.Headphone) == "" {
		return fmt.Errorf("active session has no headphone: %w", apperrors.ErrInvalidInput)
	}
	attrs := make([]domain.Attribute, 0, len(f.Subject.Attributes))
	for _, a := range f.Subject.Attributes {
		attrs = append(attrs, domain.Attribute{Key: a.Key, Value: a.Value})
	}
	if err := domain.ValidateAttributes(attrs); err != nil {
		return fmt.Errorf("active session: %v: %w", err, apperrors.ErrInvalidInput)
	}
	return nil
}
