package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/calibration/domain"
	calibrationout "audiometer/internal/modules/calibration/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteProfileStore struct {
	db *sql.DB
}

func NewSQLiteProfileStore(dbPath string) (calibrationout.ProfileStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteProfileStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteProfileStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS calibration (
  ear TEXT NOT NULL,
  frequency INTEGER NOT NULL,
  offset_db REAL NOT NULL,
  PRIMARY KEY (ear, frequency)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create calibration table: %w", err)
	}
	return nil
}

func (s *SQLiteProfileStore) Load(ctx context.Context) (*domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ear, frequency, offset_db FROM calibration`)
	if err != nil {
		return nil, fmt.Errorf("query calibration: %w", err)
	}
	defer rows.Close()

	profile := domain.NewProfile()
	for rows.Next() {
		var ear string
		var freq int
		var offset float64
		if err := rows.Scan(&ear, &freq, &offset); err != nil {
			return nil, fmt.Errorf("scan calibration row: %w", err)
		}
		profile.Set(audiogram.Ear(ear), freq, offset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calibration: %w", err)
	}
	return profile, nil
}

// Replace swaps the whole stored profile in one transaction.
func (s *SQLiteProfileStore) Replace(ctx context.Context, profile *domain.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calibration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calibration`); err != nil {
		return fmt.Errorf("clear calibration: %w", err)
	}
	for _, e := range profile.Entries() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO calibration (ear, frequency, offset_db) VALUES (?, ?, ?)`, string(e.Ear), e.Frequency, e.Offset); err != nil {
			return fmt.Errorf("insert calibration %s/%d: %w", e.Ear, e.Frequency, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calibration: %w", err)
	}
	return nil
}
