package out

import (
	"context"

	audiogram "audiometer/internal/modules/audiogram/domain"
	audiogramdto "audiometer/internal/modules/audiogram/dto"
	audiogramin "audiometer/internal/modules/audiogram/port/in"
	calibrationin "audiometer/internal/modules/calibration/port/in"
	"audiometer/internal/modules/procedure/domain"
	procedureout "audiometer/internal/modules/procedure/port/out"
	sessionin "audiometer/internal/modules/session/port/in"
	stimulus "audiometer/internal/modules/stimulus/domain"
	stimulusdto "audiometer/internal/modules/stimulus/dto"
	stimulusin "audiometer/internal/modules/stimulus/port/in"
)

type SessionAdapter struct {
	sessions sessionin.Usecase
}

func NewSessionAdapter(sessions sessionin.Usecase) procedureout.SessionSource {
	return &SessionAdapter{sessions: sessions}
}

func (a *SessionAdapter) Active(ctx context.Context) (domain.Subject, error) {
	active, err := a.sessions.GetActive(ctx)
	if err != nil {
		return domain.Subject{}, err
	}
	meta := audiogram.Metadata{SubjectID: active.SubjectID}
	for _, attr := range active.Attributes {
		meta.Attributes = append(meta.Attributes, audiogram.Attribute{Key: attr.Key, Value: attr.Value})
	}
	return domain.Subject{Metadata: meta, Headphone: active.Headphone, UseCalibration: active.UseCalibration}, nil
}

type CalibrationAdapter struct {
	calibration calibrationin.Usecase
}

func NewCalibrationAdapter(calibration calibrationin.Usecase) procedureout.ConverterSource {
	return &CalibrationAdapter{calibration: calibration}
}

func (a *CalibrationAdapter) LoadConverter(ctx context.Context, headphone string, useCalibration bool) (procedureout.LevelConverter, error) {
	return a.calibration.LoadConverter(ctx, headphone, useCalibration)
}

type RecordAdapter struct {
	records audiogramin.Usecase
}

func NewRecordAdapter(records audiogramin.Usecase) procedureout.RecordStore {
	return &RecordAdapter{records: records}
}

func (a *RecordAdapter) Load(ctx context.Context, subjectID string) (audiogram.Record, error) {
	return a.records.LoadRecord(ctx, subjectID)
}

func (a *RecordAdapter) Save(ctx context.Context, record audiogram.Record) (string, error) {
	out, err := a.records.SaveRecord(ctx, audiogramdto.SaveRecordInput{Record: record})
	if err != nil {
		return "", err
	}
	return out.Path, nil
}

type StimulusAdapter struct {
	stimulus stimulusin.Usecase
}

func NewStimulusAdapter(stimulus stimulusin.Usecase) procedureout.Presenter {
	return &StimulusAdapter{stimulus: stimulus}
}

func (a *StimulusAdapter) Present(ctx context.Context, tone stimulus.Tone, amplitude float64) (bool, error) {
	out, err := a.stimulus.Present(ctx, stimulusdto.PresentInput{
		Frequency: tone.Frequency,
		Level:     tone.Level,
		Duration:  tone.Duration,
		Ear:       string(tone.Ear),
		Amplitude: amplitude,
	})
	if err != nil {
		return false, err
	}
	return out.Heard, nil
}
