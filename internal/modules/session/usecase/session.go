package usecase

import (
	"context"
	"errors"
	"fmt"

	audiogramin "audiometer/internal/modules/audiogram/port/in"
	"audiometer/internal/modules/session/domain"
	sessiondto "audiometer/internal/modules/session/dto"
	sessionin "audiometer/internal/modules/session/port/in"
	sessionout "audiometer/internal/modules/session/port/out"
	"audiometer/internal/modules/session/service"
	apperrors "audiometer/internal/platform/errors"
)

type Interactor struct {
	svc         *service.SessionService
	records     audiogramin.Usecase
	activeStore sessionout.ActiveSessionStore
}

func NewInteractor(svc *service.SessionService, records audiogramin.Usecase, activeStore sessionout.ActiveSessionStore) sessionin.Usecase {
	return &Interactor{svc: svc, records: records, activeStore: activeStore}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.StartOutput, error) {
	if i.activeStore != nil {
		_, err := i.activeStore.LoadActive(ctx)
		if err == nil {
			return sessiondto.StartOutput{}, apperrors.ErrActiveSessionExists
		}
		if err != nil && err != apperrors.ErrNoActiveSession {
			return sessiondto.StartOutput{}, err
		}
	}

	attrs := make([]domain.Attribute, 0, len(input.Attributes))
	for _, a := range input.Attributes {
		attrs = append(attrs, domain.Attribute{Key: a.Key, Value: a.Value})
	}
	active, err := i.svc.Start(ctx, input.SubjectID, attrs, input.Headphone, input.UseCalibration)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}
	if i.activeStore != nil {
		if err := i.activeStore.SaveActive(ctx, active); err != nil {
			return sessiondto.StartOutput{}, err
		}
	}
	return sessiondto.StartOutput{SessionID: active.SessionID, SubjectID: active.SubjectID, StartedAt: active.StartedAt}, nil
}

func (i *Interactor) End(ctx context.Context, input sessiondto.EndInput) (sessiondto.EndOutput, error) {
	if i.activeStore == nil {
		return sessiondto.EndOutput{}, apperrors.ErrNoActiveSession
	}
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.EndOutput{}, err
	}
	if input.SessionID != "" && input.SessionID != active.SessionID {
		return sessiondto.EndOutput{}, fmt.Errorf("session id mismatch")
	}
	if i.records == nil {
		return sessiondto.EndOutput{}, fmt.Errorf("record usecase is not configured")
	}

	settings, err := i.records.GetSettings(ctx)
	if err != nil {
		return sessiondto.EndOutput{}, err
	}
	thresholds := domain.Thresholds{}
	record, err := i.records.GetRecord(ctx, active.SubjectID)
	switch {
	case err == nil:
		thresholds = domain.Thresholds{Frequencies: record.Frequencies, Left: record.Left, Right: record.Right}
	case !errors.Is(err, apperrors.ErrNotFound):
		return sessiondto.EndOutput{}, err
	}

	session, path, err := i.svc.End(ctx, settings.SavePath, active, input.Outcome, thresholds)
	if err != nil {
		return sessiondto.EndOutput{}, err
	}
	if err := i.activeStore.ClearActive(ctx); err != nil {
		return sessiondto.EndOutput{}, err
	}
	return sessiondto.EndOutput{
		SessionID:   session.ID,
		SubjectID:   session.SubjectID,
		Path:        path,
		DurationMin: session.DurationMin,
	}, nil
}

func (i *Interactor) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	if i.activeStore == nil {
		return sessiondto.ActiveSessionOutput{}, apperrors.ErrNoActiveSession
	}
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.ActiveSessionOutput{}, err
	}
	out := sessiondto.ActiveSessionOutput{
		SessionID:      active.SessionID,
		SubjectID:      active.SubjectID,
		Headphone:      active.Headphone,
		UseCalibration: active.UseCalibration,
		StartedAt:      active.StartedAt,
	}
	for _, a := range active.Attributes {
		out.Attributes = append(out.Attributes, sessiondto.Attribute{Key: a.Key, Value: a.Value})
	}
	return out, nil
}
