package service

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	procedureout "audiometer/internal/modules/procedure/port/out"
	stimulus "audiometer/internal/modules/stimulus/domain"
	"audiometer/internal/platform/logging"
)

// Deps are the collaborators every procedure composes.
type Deps struct {
	Presenter procedureout.Presenter
	Converter procedureout.LevelConverter
	Records   procedureout.RecordStore
	Logger    hclog.Logger
}

type base struct {
	kind     string
	deps     Deps
	settings domain.Settings
	record   audiogram.Record
	progress domain.Progress
	logger   hclog.Logger
}

func newBase(kind string, deps Deps, settings domain.Settings, record audiogram.Record) base {
	return base{
		kind:     kind,
		deps:     deps,
		settings: settings,
		record:   record.Clone(),
		logger:   logging.OrNull(deps.Logger).Named(kind),
	}
}

func (b *base) Kind() string { return b.kind }

func (b *base) Progress() float64 { return b.progress.Value() }

// present converts the level for the ear and plays one tone.
func (b *base) present(ctx context.Context, freq, level int, ear audiogram.Ear) (bool, error) {
	amplitude, err := b.deps.Converter.ToDriveLevel(float64(level), freq, ear, b.settings.UseCalibration)
	if err != nil {
		return false, err
	}
	heard, err := b.deps.Presenter.Present(ctx, stimulus.Tone{
		Frequency: freq,
		Level:     float64(level),
		Duration:  b.settings.SignalDuration,
		Ear:       ear,
	}, amplitude)
	if err != nil {
		return false, fmt.Errorf("present %d Hz at %d dB HL: %w", freq, level, err)
	}
	b.logger.Debug("presentation", "frequency", freq, "level", level, "ear", ear, "heard", heard)
	return heard, nil
}

func (b *base) set(freq int, ear audiogram.Ear, cell audiogram.Cell) error {
	if err := b.record.Set(freq, ear, cell); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// finish persists the record when asked and completes progress.
func (b *base) finish(ctx context.Context, result domain.Result, persist bool) (domain.Result, error) {
	result.Kind = b.kind
	result.Record = b.record.Clone()
	if persist {
		path, err := b.deps.Records.Save(ctx, b.record)
		if err != nil {
			return b.abort(err)
		}
		result.Path = path
	}
	b.progress.Complete()
	return result, nil
}

// abort completes progress and returns err.
func (b *base) abort(err error) (domain.Result, error) {
	b.logger.Error("procedure aborted", "error", err)
	b.progress.Complete()
	return domain.Result{}, err
}
