package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	hclog "github.com/hashicorp/go-hclog"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	"audiometer/internal/modules/procedure/dto"
	procedurein "audiometer/internal/modules/procedure/port/in"
	procedureout "audiometer/internal/modules/procedure/port/out"
	"audiometer/internal/modules/procedure/service"
	apperrors "audiometer/internal/platform/errors"
	"audiometer/internal/platform/logging"
)

type running struct {
	runner domain.Runner
	skip   *domain.SkipToken
}

type Interactor struct {
	sessions   procedureout.SessionSource
	converters procedureout.ConverterSource
	records    procedureout.RecordStore
	presenter  procedureout.Presenter
	settings   domain.Settings
	testMode   bool
	logger     hclog.Logger

	busy    atomic.Bool
	current atomic.Pointer[running]
}

func NewInteractor(
	sessions procedureout.SessionSource,
	converters procedureout.ConverterSource,
	records procedureout.RecordStore,
	presenter procedureout.Presenter,
	settings domain.Settings,
	testMode bool,
	logger hclog.Logger,
) procedurein.Usecase {
	return &Interactor{
		sessions:   sessions,
		converters: converters,
		records:    records,
		presenter:  presenter,
		settings:   settings,
		testMode:   testMode,
		logger:     logging.OrNull(logger),
	}
}

func (i *Interactor) Run(ctx context.Context, input dto.RunInput) (dto.RunOutput, error) {
	if !domain.ValidKind(input.Kind) {
		return dto.RunOutput{}, fmt.Errorf("unknown procedure %q: %w", input.Kind, apperrors.ErrInvalidInput)
	}
	if !i.busy.CompareAndSwap(false, true) {
		return dto.RunOutput{}, apperrors.ErrProcedureBusy
	}
	defer i.busy.Store(false)

	subject, err := i.sessions.Active(ctx)
	if err != nil {
		return dto.RunOutput{}, err
	}
	converter, err := i.converters.LoadConverter(ctx, subject.Headphone, subject.UseCalibration)
	if err != nil {
		return dto.RunOutput{}, err
	}
	record, err := i.startingRecord(ctx, input.Kind, subject)
	if err != nil {
		return dto.RunOutput{}, err
	}

	settings := i.settings
	settings.UseCalibration = subject.UseCalibration
	settings.Binaural = input.Binaural
	deps := service.Deps{Presenter: i.presenter, Converter: converter, Records: i.records, Logger: i.logger}

	var runner domain.Runner
	switch input.Kind {
	case domain.KindFamiliarization:
		runner = service.NewFamiliarization(deps, settings, record)
	case domain.KindThresholdSearch:
		runner = service.NewThresholdSearch(deps, settings, record)
	case domain.KindScreening:
		runner = service.NewScreening(deps, settings, record)
	}

	active := &running{runner: runner, skip: &domain.SkipToken{}}
	i.current.Store(active)
	i.logger.Info("procedure started", "kind", input.Kind, "subject", subject.Metadata.SubjectID, "binaural", input.Binaural)

	result, err := runner.Run(ctx, active.skip)
	if err != nil {
		i.logger.Error("procedure aborted", "kind", input.Kind, "error", err)
		return dto.RunOutput{}, fmt.Errorf("run %s: %w", input.Kind, err)
	}
	i.logger.Info("procedure finished", "kind", input.Kind, "success", result.Success, "skipped", result.Skipped)
	return toRunOutput(subject, result), nil
}

// startingRecord is a fresh record for familiarization and the stored one
// otherwise. The session metadata always wins.
func (i *Interactor) startingRecord(ctx context.Context, kind string, subject domain.Subject) (audiogram.Record, error) {
	if kind == domain.KindFamiliarization {
		return audiogram.NewRecord(subject.Metadata), nil
	}
	record, err := i.records.Load(ctx, subject.Metadata.SubjectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return audiogram.NewRecord(subject.Metadata), nil
	}
	if err != nil {
		return audiogram.Record{}, err
	}
	record.Metadata = subject.Metadata
	return record, nil
}

func (i *Interactor) Progress() dto.ProgressOutput {
	active := i.current.Load()
	if active == nil {
		return dto.ProgressOutput{}
	}
	return dto.ProgressOutput{
		Kind:    active.runner.Kind(),
		Running: i.busy.Load(),
		Value:   active.runner.Progress(),
	}
}

func (i *Interactor) Skip() bool {
	if !i.testMode || !i.busy.Load() {
		return false
	}
	active := i.current.Load()
	if active == nil {
		return false
	}
	active.skip.Trigger()
	i.logger.Info("skip requested", "kind", active.runner.Kind())
	return true
}

func toRunOutput(subject domain.Subject, result domain.Result) dto.RunOutput {
	out := dto.RunOutput{
		Kind:      result.Kind,
		SubjectID: subject.Metadata.SubjectID,
		Success:   result.Success,
		Skipped:   result.Skipped,
		Path:      result.Path,

		Frequencies: append([]int(nil), audiogram.Frequencies...),
	}
	if result.Reason != nil {
		out.Reason = result.Reason.Error()
	}
	for _, ear := range result.FailedEars {
		out.FailedEars = append(out.FailedEars, string(ear))
	}
	for _, cell := range result.Record.Row(audiogram.EarLeft) {
		out.Left = append(out.Left, cell.String())
	}
	for _, cell := range result.Record.Row(audiogram.EarRight) {
		out.Right = append(out.Right, cell.String())
	}
	return out
}
