package domain

import (
	"fmt"
	"strings"
	"time"
)

const SchemaVersion = 1

// reservedKeys collide with the rows of a stored record.
var reservedKeys = map[string]struct{}{
	"left":       {},
	"right":      {},
	"ear":        {},
	"subject_id": {},
	"updated_at": {},
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func ValidateAttributes(attrs []Attribute) error {
	seen := map[string]struct{}{}
	for _, a := range attrs {
		key := strings.TrimSpace(a.Key)
		if key == "" {
			return fmt.Errorf("attribute key is required")
		}
		if _, ok := reservedKeys[strings.ToLower(key)]; ok {
			return fmt.Errorf("attribute key %q is reserved", key)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate attribute key %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

type ActiveSession struct {
	SessionID      string
	SubjectID      string
	Attributes     []Attribute
	Headphone      string
	UseCalibration bool
	StartedAt      time.Time
}

type Session struct {
	ID             string
	SubjectID      string
	Attributes     []Attribute
	Headphone      string
	UseCalibration bool
	StartedAt      time.Time
	EndedAt        time.Time
	DurationMin    int
	Outcome        string
	Thresholds     Thresholds
}

// Thresholds is the printable record table attached to a session note.
type Thresholds struct {
	Frequencies []int
	Left        []string
	Right       []string
}
