package service

import (
	"context"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
)

const screeningMajority = 2

// Screening plays up to three tones at the target level of each frequency
// and records that level when at least two were heard.
type Screening struct {
	base
}

func NewScreening(deps Deps, settings domain.Settings, record audiogram.Record) *Screening {
	return &Screening{base: newBase(domain.KindScreening, deps, settings, record)}
}

// Run always runs to completion; the skip token is not consulted.
func (s *Screening) Run(ctx context.Context, _ *domain.SkipToken) (domain.Result, error) {
	ears := audiogram.Ears
	if s.settings.Binaural {
		ears = []audiogram.Ear{audiogram.EarBoth}
	}
	total := len(ears) * len(audiogram.EvaluationOrder)
	done := 0
	for _, ear := range ears {
		for _, freq := range audiogram.EvaluationOrder {
			level := s.settings.ScreeningLevel(freq)
			heard, missed := 0, 0
			for heard < screeningMajority && missed < screeningMajority {
				ok, err := s.present(ctx, freq, level, ear)
				if err != nil {
					return s.abort(err)
				}
				if ok {
					heard++
				} else {
					missed++
				}
			}
			cell := audiogram.NotHeardCell()
			if heard >= screeningMajority {
				cell = audiogram.MeasuredCell(level)
			}
			if err := s.set(freq, ear, cell); err != nil {
				return s.abort(err)
			}
			s.logger.Debug("screened", "frequency", freq, "ear", ear, "result", cell.String())
			done++
			s.progress.Step(done, total)
		}
	}
	return s.finish(ctx, domain.Result{Success: true}, true)
}
