package dto

import "time"

type Attribute struct {
	Key   string
	Value string
}

type StartInput struct {
	SubjectID      string
	Attributes     []Attribute
	Headphone      string
	UseCalibration bool
}

type StartOutput struct {
	SessionID string
	SubjectID string
	StartedAt time.Time
}

type EndInput struct {
	SessionID string
	Outcome   string
}

type EndOutput struct {
	SessionID   string
	SubjectID   string
	Path        string
	DurationMin int
}

type ActiveSessionOutput struct {
	SessionID      string
	SubjectID      string
	Attributes     []Attribute
	Headphone      string
	UseCalibration bool
	StartedAt      time.Time
}
