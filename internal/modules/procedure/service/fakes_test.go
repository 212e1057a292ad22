package service_test

import (
	"context"
	"errors"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	"audiometer/internal/modules/procedure/service"
	stimulus "audiometer/internal/modules/stimulus/domain"
	apperrors "audiometer/internal/platform/errors"
)

type presentation struct {
	freq  int
	level int
	ear   audiogram.Ear
}

// fakePresenter answers through respond and remembers every tone. When
// failAt is set, that tone fails with errAudio.
type fakePresenter struct {
	respond func(p presentation, history []presentation) bool
	calls   []presentation
	onCall  func(n int)
	failAt  int
}

var errAudio = errors.New("audio device lost")

func (f *fakePresenter) Present(_ context.Context, tone stimulus.Tone, _ float64) (bool, error) {
	if f.failAt > 0 && len(f.calls)+1 == f.failAt {
		return false, errAudio
	}
	p := presentation{freq: tone.Frequency, level: int(tone.Level), ear: tone.Ear}
	heard := f.respond(p, f.calls)
	f.calls = append(f.calls, p)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	return heard, nil
}

func (f *fakePresenter) levels() []int {
	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.level)
	}
	return out
}

func threshold(t int) func(presentation, []presentation) bool {
	return func(p presentation, _ []presentation) bool { return p.level >= t }
}

type identityConverter struct{}

func (identityConverter) ToDriveLevel(levelHL float64, _ int, _ audiogram.Ear, _ bool) (float64, error) {
	return levelHL, nil
}

type missingCalibration struct{}

func (missingCalibration) ToDriveLevel(float64, int, audiogram.Ear, bool) (float64, error) {
	return 0, apperrors.ErrMissingCalibrationData
}

type fakeRecords struct {
	saved []audiogram.Record
}

func (f *fakeRecords) Load(context.Context, string) (audiogram.Record, error) {
	return audiogram.Record{}, nil
}

func (f *fakeRecords) Save(_ context.Context, record audiogram.Record) (string, error) {
	f.saved = append(f.saved, record.Clone())
	return "/records/p/audiogram.csv", nil
}

func settings() domain.Settings {
	return domain.Settings{
		StartLevel:     40,
		MinLevel:       -10,
		MaxLevel:       100,
		SkipLevel:      20,
		SignalDuration: time.Second,
	}
}

func deps(p *fakePresenter, records *fakeRecords) service.Deps {
	return service.Deps{Presenter: p, Converter: identityConverter{}, Records: records}
}

func familiarizedRecord(level int) audiogram.Record {
	record := audiogram.NewRecord(audiogram.Metadata{SubjectID: "p"})
	_ = record.Set(1000, audiogram.EarLeft, audiogram.MeasuredCell(level))
	return record
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
