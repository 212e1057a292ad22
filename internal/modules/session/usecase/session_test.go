package usecase_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
	audiogramdto "audiometer/internal/modules/audiogram/dto"
	sessionout "audiometer/internal/modules/session/adapter/out"
	sessiondto "audiometer/internal/modules/session/dto"
	sessionin "audiometer/internal/modules/session/port/in"
	"audiometer/internal/modules/session/service"
	"audiometer/internal/modules/session/usecase"
	apperrors "audiometer/internal/platform/errors"
)

type fakeClock struct {
	values []time.Time
	idx    int
}

func (f *fakeClock) Now() time.Time {
	if f.idx >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	v := f.values[f.idx]
	f.idx++
	return v
}

type fakeID struct{}

func (fakeID) New() string { return "sess-1" }

type fakeRecords struct {
	savePath string
	record   *audiogramdto.RecordOutput
}

func (f *fakeRecords) SaveRecord(context.Context, audiogramdto.SaveRecordInput) (audiogramdto.SaveRecordOutput, error) {
	return audiogramdto.SaveRecordOutput{}, nil
}
func (f *fakeRecords) LoadRecord(context.Context, string) (audiogram.Record, error) {
	return audiogram.Record{}, apperrors.ErrNotFound
}
func (f *fakeRecords) GetRecord(context.Context, string) (audiogramdto.RecordOutput, error) {
	if f.record == nil {
		return audiogramdto.RecordOutput{}, apperrors.ErrNotFound
	}
	return *f.record, nil
}
func (f *fakeRecords) ListRecords(context.Context) ([]audiogramdto.SummaryOutput, error) {
	return nil, nil
}
func (f *fakeRecords) GetSettings(context.Context) (audiogramdto.SettingsOutput, error) {
	return audiogramdto.SettingsOutput{SavePath: f.savePath}, nil
}
func (f *fakeRecords) UpdateSettings(context.Context, audiogramdto.UpdateSettingsInput) (audiogramdto.SettingsOutput, error) {
	return audiogramdto.SettingsOutput{SavePath: f.savePath}, nil
}

func newInteractor(dataDir string, clk *fakeClock, records *fakeRecords) sessionin.Usecase {
	return usecase.NewInteractor(
		service.NewSessionService(clk, fakeID{}, sessionout.NewNoteSessionStore()),
		records,
		sessionout.NewFileActiveSessionStore(dataDir),
	)
}

func TestSessionLifecycleWritesNoteWithThresholds(t *testing.T) {
	t.Parallel()
	dataDir := t.TempDir()
	saveRoot := t.TempDir()
	clk := &fakeClock{values: []time.Time{
		time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 25, 10, 25, 0, 0, time.UTC),
	}}
	records := &fakeRecords{savePath: saveRoot, record: &audiogramdto.RecordOutput{
		SubjectID:   "P 12",
		Frequencies: audiogram.Frequencies,
		Left:        []string{"10", "15", "20", "20", "25", "30", "NH"},
		Right:       []string{"-", "-", "-", "-", "-", "-", "-"},
	}}
	uc := newInteractor(dataDir, clk, records)

	start, err := uc.Start(context.Background(), sessiondto.StartInput{
		SubjectID:      "P 12",
		Attributes:     []sessiondto.Attribute{{Key: "age", Value: "34"}, {Key: "gender", Value: "m"}},
		Headphone:      "Sennheiser_HDA200",
		UseCalibration: true,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	active, err := uc.GetActive(context.Background())
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.SessionID != start.SessionID || active.Headphone != "Sennheiser_HDA200" || len(active.Attributes) != 2 {
		t.Fatalf("unexpected active session %+v", active)
	}

	end, err := uc.End(context.Background(), sessiondto.EndInput{Outcome: "Cooperative listener"})
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if end.DurationMin != 25 {
		t.Fatalf("expected 25 minutes, got %d", end.DurationMin)
	}
	if !strings.HasPrefix(end.Path, saveRoot) || !strings.Contains(end.Path, "p-12/sessions/2026-02-25-100000.md") {
		t.Fatalf("unexpected note path %s", end.Path)
	}
	raw, err := os.ReadFile(end.Path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	note := string(raw)
	for _, want := range []string{"subject_id: P 12", "headphone: Sennheiser_HDA200", "age: \"34\"", "| left | 10 | 15 | 20 | 20 | 25 | 30 | NH |", "Cooperative listener"} {
		if !strings.Contains(note, want) {
			t.Fatalf("note missing %q:\n%s", want, note)
		}
	}
	if _, err := uc.GetActive(context.Background()); err != apperrors.ErrNoActiveSession {
		t.Fatalf("expected no active session after end, got %v", err)
	}
}

func TestStartRejectsSecondSessionAndReservedKeys(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)}}
	uc := newInteractor(t.TempDir(), clk, &fakeRecords{savePath: t.TempDir()})

	_, err := uc.Start(context.Background(), sessiondto.StartInput{
		SubjectID:  "p",
		Attributes: []sessiondto.Attribute{{Key: "left", Value: "x"}},
		Headphone:  "Sennheiser_HDA200",
	})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("reserved key should be rejected, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{SubjectID: "p"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("missing headphone should be rejected, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{SubjectID: "p", Headphone: "Sennheiser_HDA200"}); err != nil {
		t.Fatalf("first start should succeed: %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{SubjectID: "q", Headphone: "Sennheiser_HDA200"}); err != apperrors.ErrActiveSessionExists {
		t.Fatalf("expected active session exists error, got %v", err)
	}
}

func TestEndWithoutRecordAndMismatchedSessionID(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{
		time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 25, 10, 5, 0, 0, time.UTC),
	}}
	uc := newInteractor(t.TempDir(), clk, &fakeRecords{savePath: t.TempDir()})
	if _, err := uc.End(context.Background(), sessiondto.EndInput{}); err != apperrors.ErrNoActiveSession {
		t.Fatalf("expected no active session error, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{Headphone: "Sennheiser_HDA200"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.End(context.Background(), sessiondto.EndInput{SessionID: "other"}); err == nil {
		t.Fatalf("mismatched session id should fail")
	}
	end, err := uc.End(context.Background(), sessiondto.EndInput{})
	if err != nil {
		t.Fatalf("end without record: %v", err)
	}
	if !strings.Contains(end.Path, "anonymous/sessions/") {
		t.Fatalf("anonymous subject should use the shared folder, got %s", end.Path)
	}
}

func TestInteractorWithoutStores(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{values: []time.Time{time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)}}
	uc := usecase.NewInteractor(service.NewSessionService(clk, fakeID{}, sessionout.NewNoteSessionStore()), nil, nil)
	out, err := uc.Start(context.Background(), sessiondto.StartInput{SubjectID: "p", Headphone: "Sennheiser_HDA200"})
	if err != nil || out.SessionID == "" {
		t.Fatalf("start should succeed without active store: %+v (%v)", out, err)
	}
	if _, err := uc.GetActive(context.Background()); err != apperrors.ErrNoActiveSession {
		t.Fatalf("expected no active session for nil store, got %v", err)
	}
}
