package service

import (
	"context"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	apperrors "audiometer/internal/platform/errors"
)

const (
	familiarizationFrequency = 1000
	familiarizationAttempts  = 2
	familiarizationDescent   = 20
	familiarizationAscent    = 10
)

// Familiarization checks that the listener understood the task at 1000 Hz on
// the left ear before any threshold is measured.
type Familiarization struct {
	base
}

func NewFamiliarization(deps Deps, settings domain.Settings, record audiogram.Record) *Familiarization {
	return &Familiarization{base: newBase(domain.KindFamiliarization, deps, settings, record)}
}

func (f *Familiarization) Run(ctx context.Context, skip *domain.SkipToken) (domain.Result, error) {
	milestones := familiarizationAttempts * 2
	for attempt := 0; attempt < familiarizationAttempts; attempt++ {
		level, reached, err := f.approach(ctx, skip)
		if err != nil {
			return f.abort(err)
		}
		if skip.Triggered() {
			return f.skip(ctx)
		}
		f.progress.Step(attempt*2+1, milestones)
		if reached {
			heard, err := f.present(ctx, familiarizationFrequency, level, audiogram.EarLeft)
			if err != nil {
				return f.abort(err)
			}
			if heard {
				if err := f.set(familiarizationFrequency, audiogram.EarLeft, audiogram.MeasuredCell(level)); err != nil {
					return f.abort(err)
				}
				f.logger.Info("familiarization passed", "level", level, "attempt", attempt+1)
				return f.finish(ctx, domain.Result{Success: true}, true)
			}
		}
		f.logger.Warn("familiarization attempt failed", "attempt", attempt+1)
		f.progress.Step(attempt*2+2, milestones)
	}
	return f.finish(ctx, domain.Result{Reason: apperrors.ErrFamiliarizationFailed}, false)
}

// approach descends in 20 dB steps while tones are heard, then ascends in
// 10 dB steps until one is heard again. It reports the level to confirm, or
// reached=false when the maximum level went unheard. The descent stops at one
// step below the start level: a tone heard there is confirmed directly.
func (f *Familiarization) approach(ctx context.Context, skip *domain.SkipToken) (level int, reached bool, err error) {
	level = f.settings.StartLevel
	floor := max(f.settings.StartLevel-familiarizationDescent, f.settings.MinLevel)
	for {
		if skip.Triggered() {
			return 0, false, nil
		}
		heard, err := f.present(ctx, familiarizationFrequency, level, audiogram.EarLeft)
		if err != nil {
			return 0, false, err
		}
		if !heard {
			break
		}
		if level-familiarizationDescent < floor {
			return level, true, nil
		}
		level -= familiarizationDescent
	}
	for {
		level += familiarizationAscent
		if level > f.settings.MaxLevel {
			return level, false, nil
		}
		if skip.Triggered() {
			return 0, false, nil
		}
		heard, err := f.present(ctx, familiarizationFrequency, level, audiogram.EarLeft)
		if err != nil {
			return 0, false, err
		}
		if heard {
			return level, true, nil
		}
	}
}

func (f *Familiarization) skip(ctx context.Context) (domain.Result, error) {
	if err := f.set(familiarizationFrequency, audiogram.EarLeft, audiogram.MeasuredCell(f.settings.SkipLevel)); err != nil {
		return f.abort(err)
	}
	f.logger.Info("familiarization skipped", "level", f.settings.SkipLevel)
	return f.finish(ctx, domain.Result{Success: true, Skipped: true}, true)
}
