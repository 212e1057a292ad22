package dto

import "time"

type PresentInput struct {
	Frequency int
	Level     float64
	Duration  time.Duration
	Ear       string
	Amplitude float64
}

type PresentOutput struct {
	Heard bool
}
