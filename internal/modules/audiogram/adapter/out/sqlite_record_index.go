package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"audiometer/internal/modules/audiogram/domain"
	audiogramout "audiometer/internal/modules/audiogram/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteRecordIndex struct {
	db *sql.DB
}

func NewSQLiteRecordIndex(dbPath string) (audiogramout.RecordIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	index := &SQLiteRecordIndex{db: db}
	if err := index.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *SQLiteRecordIndex) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
  subject_id TEXT PRIMARY KEY,
  path TEXT NOT NULL,
  measured INTEGER NOT NULL,
  not_heard INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	return nil
}

func (s *SQLiteRecordIndex) Upsert(ctx context.Context, summary domain.Summary) error {
	const stmt = `
INSERT INTO records (subject_id, path, measured, not_heard, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(subject_id) DO UPDATE SET
  path=excluded.path,
  measured=excluded.measured,
  not_heard=excluded.not_heard,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		summary.SubjectID,
		summary.Path,
		summary.Measured,
		summary.NotHeard,
		summary.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert record summary: %w", err)
	}
	return nil
}

func (s *SQLiteRecordIndex) List(ctx context.Context) ([]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT subject_id, path, measured, not_heard, updated_at FROM records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []domain.Summary
	for rows.Next() {
		var summary domain.Summary
		var updated string
		if err := rows.Scan(&summary.SubjectID, &summary.Path, &summary.Measured, &summary.NotHeard, &updated); err != nil {
			return nil, fmt.Errorf("scan record summary: %w", err)
		}
		if at, err := time.Parse(time.RFC3339, updated); err == nil {
			summary.UpdatedAt = at
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
