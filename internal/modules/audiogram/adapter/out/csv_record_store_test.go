package out_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	audiogramout "audiometer/internal/modules/audiogram/adapter/out"
	"audiometer/internal/modules/audiogram/domain"
	apperrors "audiometer/internal/platform/errors"
)

func TestCSVRecordRoundTrip(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := audiogramout.NewCSVRecordStore()

	record := domain.NewRecord(domain.Metadata{
		SubjectID:  "Proband 7",
		Attributes: []domain.Attribute{{Key: "gender", Value: "f"}, {Key: "age", Value: "42"}},
	})
	record.UpdatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	_ = record.Set(1000, domain.EarLeft, domain.MeasuredCell(20))
	_ = record.Set(1000, domain.EarRight, domain.MeasuredCell(25))
	_ = record.Set(8000, domain.EarRight, domain.NotHeardCell())
	_ = record.Set(125, domain.EarLeft, domain.MeasuredCell(-5))

	path, err := store.Save(context.Background(), root, record)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(path, "proband-7/audiogram.csv") {
		t.Fatalf("unexpected record path %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "ear,125,250,500,1000,2000,4000,8000" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "right,-,-,-,25,-,-,NH" {
		t.Fatalf("unexpected right row %q", lines[2])
	}

	loaded, err := store.Load(context.Background(), root, "Proband 7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Metadata.SubjectID != "Proband 7" || !loaded.UpdatedAt.Equal(record.UpdatedAt) {
		t.Fatalf("metadata not round-tripped: %+v", loaded.Metadata)
	}
	if len(loaded.Metadata.Attributes) != 2 || loaded.Metadata.Attributes[1].Value != "42" {
		t.Fatalf("attributes not round-tripped: %+v", loaded.Metadata.Attributes)
	}
	for _, ear := range domain.Ears {
		for _, f := range domain.Frequencies {
			if loaded.Get(f, ear) != record.Get(f, ear) {
				t.Fatalf("%s %d Hz: expected %v, got %v", ear, f, record.Get(f, ear), loaded.Get(f, ear))
			}
		}
	}
}

func TestCSVRecordRejectsReservedMetadataKeys(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := audiogramout.NewCSVRecordStore()
	for _, key := range []string{"left", "right", "subject_id", "updated_at"} {
		record := domain.NewRecord(domain.Metadata{
			SubjectID:  "p-9",
			Attributes: []domain.Attribute{{Key: key, Value: "x"}},
		})
		if _, err := audiogramout.EncodeRecord(record); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", key, err)
		}
		if _, err := store.Save(context.Background(), root, record); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: save should refuse the record, got %v", key, err)
		}
	}
	if _, err := store.Load(context.Background(), root, "p-9"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("rejected records must not reach disk, got %v", err)
	}

	record := domain.NewRecord(domain.Metadata{SubjectID: "p-9", Attributes: []domain.Attribute{{Key: "Left", Value: "handed"}}})
	if _, err := audiogramout.EncodeRecord(record); err != nil {
		t.Fatalf("keys are matched exactly, got %v", err)
	}
}

func TestCSVRecordLoadMissingAndCorrupt(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := audiogramout.NewCSVRecordStore()
	if _, err := store.Load(context.Background(), root, "nobody"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := audiogramout.DecodeRecord([]byte("freq,1,2\n")); err == nil {
		t.Fatalf("bad header should fail")
	}
	if _, err := audiogramout.DecodeRecord([]byte("ear,125,250,500,1000,2000,4000,8000\nleft,1,2\n")); err == nil {
		t.Fatalf("short ear row should fail")
	}
}
