package dto

type RunInput struct {
	Kind     string
	Binaural bool
}

type RunOutput struct {
	Kind       string
	SubjectID  string
	Success    bool
	Skipped    bool
	Path       string
	FailedEars []string
	Reason     string

	Frequencies []int
	Left        []string
	Right       []string
}

type ProgressOutput struct {
	Kind    string
	Running bool
	Value   float64
}
