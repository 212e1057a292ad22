package domain

import "time"

// Summary is the indexed view of a persisted record.
type Summary struct {
	SubjectID string
	Path      string
	UpdatedAt time.Time
	Measured  int
	NotHeard  int
}

func Summarize(record Record, path string) Summary {
	s := Summary{SubjectID: record.Metadata.SubjectID, Path: path, UpdatedAt: record.UpdatedAt}
	for _, ear := range Ears {
		for _, cell := range record.Row(ear) {
			switch cell.State {
			case Measured:
				s.Measured++
			case NotHeard:
				s.NotHeard++
			}
		}
	}
	return s
}
