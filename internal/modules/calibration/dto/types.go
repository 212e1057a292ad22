package dto

type BeginInput struct {
	Headphone  string
	StartLevel float64
}

type StepOutput struct {
	Frequency   int
	Ear         string
	ExpectedSPL float64
	Position    int
	Total       int
	Exhausted   bool
	Progress    float64
}

type MeasurementOutput struct {
	Frequency int
	Ear       string
	Offset    float64
}

type OffsetOutput struct {
	Ear       string
	Frequency int
	Offset    float64
}

type ProfileOutput struct {
	Offsets []OffsetOutput
}
