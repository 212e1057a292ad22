package out

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"audiometer/internal/modules/audiogram/domain"
	audiogramout "audiometer/internal/modules/audiogram/port/out"
	apperrors "audiometer/internal/platform/errors"
	"audiometer/internal/platform/slug"
)

const (
	recordFileName = "audiogram.csv"
	headerLabel    = "ear"
	subjectKey     = "subject_id"
	updatedAtKey   = "updated_at"
)

// CSVRecordStore keeps one audiogram.csv per subject folder: a header of the
// frequency labels, one row per ear and trailing metadata key/value rows.
type CSVRecordStore struct{}

func NewCSVRecordStore() audiogramout.RecordStore {
	return &CSVRecordStore{}
}

func RecordPath(root, subjectID string) string {
	return filepath.Join(root, slug.Subject(subjectID), recordFileName)
}

func (s *CSVRecordStore) Save(_ context.Context, root string, record domain.Record) (string, error) {
	payload, err := EncodeRecord(record)
	if err != nil {
		return "", err
	}
	path := RecordPath(root, record.Metadata.SubjectID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create subject dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace record: %w", err)
	}
	return path, nil
}

func (s *CSVRecordStore) Load(_ context.Context, root, subjectID string) (domain.Record, error) {
	payload, err := os.ReadFile(RecordPath(root, subjectID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Record{}, fmt.Errorf("record for subject %q: %w", subjectID, apperrors.ErrNotFound)
		}
		return domain.Record{}, fmt.Errorf("read record: %w", err)
	}
	return DecodeRecord(payload)
}

func EncodeRecord(record domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{headerLabel}
	for _, f := range domain.Frequencies {
		header = append(header, strconv.Itoa(f))
	}
	rows := [][]string{header}
	for _, ear := range domain.Ears {
		row := []string{string(ear)}
		for _, cell := range record.Row(ear) {
			row = append(row, cell.String())
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{subjectKey, record.Metadata.SubjectID})
	if !record.UpdatedAt.IsZero() {
		rows = append(rows, []string{updatedAtKey, record.UpdatedAt.Format(time.RFC3339)})
	}
	for _, a := range record.Metadata.Attributes {
		if reservedKey(a.Key) {
			return nil, fmt.Errorf("encode record: metadata key %q is reserved: %w", a.Key, apperrors.ErrInvalidInput)
		}
		rows = append(rows, []string{a.Key, a.Value})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// reservedKey reports whether key would be read back as an ear row or as
// record bookkeeping.
func reservedKey(key string) bool {
	switch key {
	case string(domain.EarLeft), string(domain.EarRight), subjectKey, updatedAtKey:
		return true
	}
	return false
}

func DecodeRecord(payload []byte) (domain.Record, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return domain.Record{}, fmt.Errorf("decode record: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) != len(domain.Frequencies)+1 || rows[0][0] != headerLabel {
		return domain.Record{}, fmt.Errorf("decode record: unexpected header")
	}
	freqs := make([]int, 0, len(domain.Frequencies))
	for _, label := range rows[0][1:] {
		f, err := strconv.Atoi(label)
		if err != nil || !domain.IsClinicalFrequency(f) {
			return domain.Record{}, fmt.Errorf("decode record: bad frequency label %q", label)
		}
		freqs = append(freqs, f)
	}

	record := domain.NewRecord(domain.Metadata{})
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		key := row[0]
		switch domain.Ear(key) {
		case domain.EarLeft, domain.EarRight:
			if len(row) != len(freqs)+1 {
				return domain.Record{}, fmt.Errorf("decode record: row %q has %d cells", key, len(row)-1)
			}
			for i, raw := range row[1:] {
				cell, err := domain.ParseCell(raw)
				if err != nil {
					return domain.Record{}, fmt.Errorf("decode record: %w", err)
				}
				if err := record.Set(freqs[i], domain.Ear(key), cell); err != nil {
					return domain.Record{}, err
				}
			}
			continue
		}
		value := ""
		if len(row) > 1 {
			value = row[1]
		}
		switch key {
		case subjectKey:
			record.Metadata.SubjectID = value
		case updatedAtKey:
			at, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return domain.Record{}, fmt.Errorf("decode record: updated_at: %w", err)
			}
			record.UpdatedAt = at
		default:
			record.Metadata.Attributes = append(record.Metadata.Attributes, domain.Attribute{Key: key, Value: value})
		}
	}
	return record, nil
}
