package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const SchemaVersion = 1

type Ear string

const (
	EarLeft  Ear = "left"
	EarRight Ear = "right"
	EarBoth  Ear = "both"
)

func (e Ear) Validate() error {
	switch e {
	case EarLeft, EarRight, EarBoth:
		return nil
	default:
		return fmt.Errorf("unsupported ear %q", string(e))
	}
}

// Ears lists the physical ears a record keeps a row for.
var Ears = []Ear{EarLeft, EarRight}

// Frequencies is the clinical set in ascending (header) order.
var Frequencies = []int{125, 250, 500, 1000, 2000, 4000, 8000}

// EvaluationOrder is the order in which procedures visit the frequencies.
var EvaluationOrder = []int{1000, 2000, 4000, 8000, 500, 250, 125}

func IsClinicalFrequency(freq int) bool {
	for _, f := range Frequencies {
		if f == freq {
			return true
		}
	}
	return false
}

type CellState int

const (
	Undetermined CellState = iota
	Measured
	NotHeard
)

const (
	NotHeardMarker     = "NH"
	UndeterminedMarker = "-"
)

// Cell is one (frequency, ear) entry of a threshold record.
type Cell struct {
	State CellState
	Level int
}

func MeasuredCell(level int) Cell { return Cell{State: Measured, Level: level} }

func NotHeardCell() Cell { return Cell{State: NotHeard} }

func (c Cell) String() string {
	switch c.State {
	case Measured:
		return strconv.Itoa(c.Level)
	case NotHeard:
		return NotHeardMarker
	default:
		return UndeterminedMarker
	}
}

func ParseCell(raw string) (Cell, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", UndeterminedMarker:
		return Cell{}, nil
	case NotHeardMarker:
		return NotHeardCell(), nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return Cell{}, fmt.Errorf("parse threshold cell %q: %w", raw, err)
	}
	return MeasuredCell(level), nil
}

type Attribute struct {
	Key   string
	Value string
}

// Metadata is captured once at session start and travels with the record.
type Metadata struct {
	SubjectID  string
	Attributes []Attribute
}

func (m Metadata) Attribute(key string) (string, bool) {
	for _, a := range m.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Record is the threshold table of one subject.
type Record struct {
	Metadata  Metadata
	UpdatedAt time.Time
	cells     map[Ear]map[int]Cell
}

func NewRecord(meta Metadata) Record {
	r := Record{Metadata: meta, cells: map[Ear]map[int]Cell{}}
	for _, ear := range Ears {
		r.cells[ear] = map[int]Cell{}
	}
	return r
}

// Set writes a cell. EarBoth writes the same cell to both rows.
func (r *Record) Set(freq int, ear Ear, cell Cell) error {
	if !IsClinicalFrequency(freq) {
		return fmt.Errorf("frequency %d Hz is not part of the clinical set", freq)
	}
	if err := ear.Validate(); err != nil {
		return err
	}
	if r.cells == nil {
		*r = NewRecord(r.Metadata)
	}
	if ear == EarBoth {
		r.cells[EarLeft][freq] = cell
		r.cells[EarRight][freq] = cell
		return nil
	}
	r.cells[ear][freq] = cell
	return nil
}

// Get reads a cell. For EarBoth the left row is returned; both rows are kept
// identical by Set.
func (r Record) Get(freq int, ear Ear) Cell {
	if ear == EarBoth {
		ear = EarLeft
	}
	row, ok := r.cells[ear]
	if !ok {
		return Cell{}
	}
	return row[freq]
}

// Row returns the cells of one ear in header order.
func (r Record) Row(ear Ear) []Cell {
	out := make([]Cell, 0, len(Frequencies))
	for _, f := range Frequencies {
		out = append(out, r.Get(f, ear))
	}
	return out
}

// Clone returns a deep copy so a running procedure can mutate freely.
func (r Record) Clone() Record {
	out := NewRecord(Metadata{
		SubjectID:  r.Metadata.SubjectID,
		Attributes: append([]Attribute(nil), r.Metadata.Attributes...),
	})
	out.UpdatedAt = r.UpdatedAt
	for ear, row := range r.cells {
		for f, c := range row {
			out.cells[ear][f] = c
		}
	}
	return out
}
