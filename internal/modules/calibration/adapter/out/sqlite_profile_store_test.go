package out_test

import (
	"context"
	"path/filepath"
	"testing"

	audiogram "audiometer/internal/modules/audiogram/domain"
	calibrationout "audiometer/internal/modules/calibration/adapter/out"
	"audiometer/internal/modules/calibration/domain"
)

func TestProfileReplaceIsWholesale(t *testing.T) {
	t.Parallel()
	store, err := calibrationout.NewSQLiteProfileStore(filepath.Join(t.TempDir(), ".audiometer", "audiometer.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	first := domain.NewProfile()
	first.Set(audiogram.EarLeft, 125, 1)
	first.Set(audiogram.EarRight, 8000, -3.25)
	if err := store.Replace(ctx, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := domain.NewProfile()
	second.Set(audiogram.EarLeft, 1000, 2.5)
	if err := store.Replace(ctx, second); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("expected only the second profile, got %+v", loaded.Entries())
	}
	if v, ok := loaded.Offset(audiogram.EarLeft, 1000); !ok || v != 2.5 {
		t.Fatalf("unexpected offset %g (%v)", v, ok)
	}
}
