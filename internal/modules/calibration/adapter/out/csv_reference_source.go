package out

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"audiometer/internal/modules/calibration/domain"
	calibrationout "audiometer/internal/modules/calibration/port/out"
	apperrors "audiometer/internal/platform/errors"
)

//go:embed retspl.csv
var defaultReferenceTable []byte

// CSVReferenceSource reads RETSPL rows of the form
// headphone_model,frequency,retspl. A file at overridePath, when present,
// replaces the built-in table.
type CSVReferenceSource struct {
	overridePath string
}

func NewCSVReferenceSource(overridePath string) calibrationout.ReferenceSource {
	return &CSVReferenceSource{overridePath: overridePath}
}

func (s *CSVReferenceSource) Load(_ context.Context, headphone string) (domain.ReferenceTable, error) {
	tables, err := s.read()
	if err != nil {
		return domain.ReferenceTable{}, err
	}
	table, ok := tables[headphone]
	if !ok {
		return domain.ReferenceTable{}, fmt.Errorf("headphone %q: %w", headphone, apperrors.ErrNotFound)
	}
	return table, nil
}

func (s *CSVReferenceSource) Headphones(_ context.Context) ([]string, error) {
	tables, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tables))
	for name := range tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *CSVReferenceSource) read() (map[string]domain.ReferenceTable, error) {
	payload := defaultReferenceTable
	if s.overridePath != "" {
		raw, err := os.ReadFile(s.overridePath)
		switch {
		case err == nil:
			payload = raw
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read reference table: %w", err)
		}
	}
	return ParseReferenceTable(payload)
}

func ParseReferenceTable(payload []byte) (map[string]domain.ReferenceTable, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse reference table: %w", err)
	}
	if len(rows) == 0 || strings.TrimSpace(rows[0][0]) != "headphone_model" {
		return nil, fmt.Errorf("parse reference table: missing header")
	}
	tables := map[string]domain.ReferenceTable{}
	for n, row := range rows[1:] {
		name := strings.TrimSpace(row[0])
		freq, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("parse reference table line %d: frequency: %w", n+2, err)
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse reference table line %d: retspl: %w", n+2, err)
		}
		table, ok := tables[name]
		if !ok {
			table = domain.ReferenceTable{Headphone: name, Levels: map[int]float64{}}
			tables[name] = table
		}
		table.Levels[freq] = level
	}
	return tables, nil
}
