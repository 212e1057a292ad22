package in

import (
	"context"

	sessiondto "audiometer/internal/modules/session/dto"
	sessionin "audiometer/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, subjectID string, attrs []sessiondto.Attribute, headphone string, useCalibration bool) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{
		SubjectID:      subjectID,
		Attributes:     attrs,
		Headphone:      headphone,
		UseCalibration: useCalibration,
	})
}

func (h CLIHandler) End(ctx context.Context, sessionID, outcome string) (sessiondto.EndOutput, error) {
	return h.usecase.End(ctx, sessiondto.EndInput{SessionID: sessionID, Outcome: outcome})
}

func (h CLIHandler) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	return h.usecase.GetActive(ctx)
}
