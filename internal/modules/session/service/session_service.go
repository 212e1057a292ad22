package service

import (
	"context"
	"fmt"
	"strings"

	"audiometer/internal/modules/session/domain"
	sessionout "audiometer/internal/modules/session/port/out"
	"audiometer/internal/platform/clock"
	apperrors "audiometer/internal/platform/errors"
	"audiometer/internal/platform/id"
)

type SessionService struct {
	clock clock.Clock
	idGen id.Generator
	store sessionout.SessionStore
}

func NewSessionService(clock clock.Clock, idGen id.Generator, store sessionout.SessionStore) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, store: store}
}

func (s *SessionService) Start(_ context.Context, subjectID string, attrs []domain.Attribute, headphone string, useCalibration bool) (domain.ActiveSession, error) {
	if strings.TrimSpace(headphone) == "" {
		return domain.ActiveSession{}, fmt.Errorf("headphone is required: %w", apperrors.ErrInvalidInput)
	}
	if err := domain.ValidateAttributes(attrs); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput)
	}
	return domain.ActiveSession{
		SessionID:      s.idGen.New(),
		SubjectID:      strings.TrimSpace(subjectID),
		Attributes:     attrs,
		Headphone:      headphone,
		UseCalibration: useCalibration,
		StartedAt:      s.clock.Now(),
	}, nil
}

func (s *SessionService) End(ctx context.Context, root string, active domain.ActiveSession, outcome string, thresholds domain.Thresholds) (domain.Session, string, error) {
	endedAt := s.clock.Now()
	duration := int(endedAt.Sub(active.StartedAt).Minutes())
	if duration < 0 {
		duration = 0
	}
	session := domain.Session{
		ID:             active.SessionID,
		SubjectID:      active.SubjectID,
		Attributes:     active.Attributes,
		Headphone:      active.Headphone,
		UseCalibration: active.UseCalibration,
		StartedAt:      active.StartedAt,
		EndedAt:        endedAt,
		DurationMin:    duration,
		Outcome:        outcome,
		Thresholds:     thresholds,
	}
	path, err := s.store.Save(ctx, root, session)
	if err != nil {
		return domain.Session{}, "", err
	}
	return session, path, nil
}
