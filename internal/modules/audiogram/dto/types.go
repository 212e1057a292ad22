package dto

import (
	"time"

	"audiometer/internal/modules/audiogram/domain"
)

type SaveRecordInput struct {
	Record domain.Record
}

type SaveRecordOutput struct {
	SubjectID string
	Path      string
	Archived  bool
}

type AttributeOutput struct {
	Key   string
	Value string
}

type RecordOutput struct {
	SubjectID   string
	Attributes  []AttributeOutput
	Frequencies []int
	Left        []string
	Right       []string
	UpdatedAt   time.Time
}

type SummaryOutput struct {
	SubjectID string
	Path      string
	UpdatedAt time.Time
	Measured  int
	NotHeard  int
}

type SettingsOutput struct {
	SavePath string
	Theme    string
}

type UpdateSettingsInput struct {
	SavePath string
	Theme    string
}
