package service

import (
	"context"
	"fmt"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/procedure/domain"
	apperrors "audiometer/internal/platform/errors"
)

const (
	searchStartOffset = 10
	searchStartAscent = 5
	bracketDescent    = 10
	bracketAscent     = 5
	bracketMaxTries   = 6
	bracketReplayTry  = 3
	bracketReplayRise = 10
	retestTolerance   = 5
)

// ThresholdSearch brackets the hearing threshold at every clinical frequency,
// per ear or once binaurally, and retests one frequency per ear.
type ThresholdSearch struct {
	base
}

func NewThresholdSearch(deps Deps, settings domain.Settings, record audiogram.Record) *ThresholdSearch {
	return &ThresholdSearch{base: newBase(domain.KindThresholdSearch, deps, settings, record)}
}

func (s *ThresholdSearch) ears() []audiogram.Ear {
	if s.settings.Binaural {
		return []audiogram.Ear{audiogram.EarBoth}
	}
	return audiogram.Ears
}

func (s *ThresholdSearch) Run(ctx context.Context, skip *domain.SkipToken) (domain.Result, error) {
	familiarized := s.settings.StartLevel
	if cell := s.record.Get(familiarizationFrequency, audiogram.EarLeft); cell.State == audiogram.Measured {
		familiarized = cell.Level
	}
	ears := s.ears()
	total := (len(audiogram.EvaluationOrder) + 1) * len(ears)
	done := 0
	var failed []audiogram.Ear

	for i, ear := range ears {
		start, ok, err := s.startLevel(ctx, skip, ear, familiarized)
		if err != nil {
			return s.abort(err)
		}
		if !ok {
			return s.skip(ctx, ears[i:], failed)
		}
		s.logger.Info("starting level found", "ear", ear, "level", start)

		for _, freq := range audiogram.EvaluationOrder {
			cell, skipped, err := s.bracket(ctx, skip, freq, ear, start)
			if err != nil {
				return s.abort(err)
			}
			if skipped {
				return s.skip(ctx, ears[i:], failed)
			}
			if err := s.set(freq, ear, cell); err != nil {
				return s.abort(err)
			}
			done++
			s.progress.Step(done, total)
		}

		passed, skipped, err := s.retest(ctx, skip, ear, start)
		if err != nil {
			return s.abort(err)
		}
		if !passed {
			failed = append(failed, ear)
		}
		if skipped {
			return s.skip(ctx, ears[i:], failed)
		}
		done++
		s.progress.Step(done, total)
	}

	if len(failed) > 0 {
		s.logger.Warn("retest failed", "ears", failed)
		return s.finish(ctx, domain.Result{
			FailedEars: failed,
			Reason:     fmt.Errorf("retest differs by more than %d dB", retestTolerance),
		}, false)
	}
	return s.finish(ctx, domain.Result{Success: true}, true)
}

// startLevel searches upward in 5 dB steps at 1000 Hz from 10 dB below the
// familiarization level. It reports false when skipped.
func (s *ThresholdSearch) startLevel(ctx context.Context, skip *domain.SkipToken, ear audiogram.Ear, familiarized int) (int, bool, error) {
	level := familiarized - searchStartOffset
	for {
		if skip.Triggered() {
			return 0, false, nil
		}
		heard, err := s.present(ctx, familiarizationFrequency, level, ear)
		if err != nil {
			return 0, false, err
		}
		if heard || level >= s.settings.MaxLevel {
			return level, true, nil
		}
		level = min(level+searchStartAscent, s.settings.MaxLevel)
	}
}

// bracket runs the descending/ascending search for one frequency. A level
// found twice is the threshold. Levels above the maximum give NotHeard.
func (s *ThresholdSearch) bracket(ctx context.Context, skip *domain.SkipToken, freq int, ear audiogram.Ear, start int) (audiogram.Cell, bool, error) {
	level := start
	heard := true
	presented := false
	var answers domain.Answers

	play := func() (bool, error) {
		presented = true
		return s.present(ctx, freq, level, ear)
	}

	for try := 1; try <= bracketMaxTries; try++ {
		for heard {
			if presented && level <= s.settings.MinLevel {
				return audiogram.MeasuredCell(level), false, nil
			}
			level = max(level-bracketDescent, s.settings.MinLevel)
			if skip.Triggered() {
				return audiogram.Cell{}, true, nil
			}
			var err error
			if heard, err = play(); err != nil {
				return audiogram.Cell{}, false, err
			}
		}
		for !heard {
			if level+bracketAscent > s.settings.MaxLevel {
				s.logger.Info("no response below maximum level", "frequency", freq, "ear", ear)
				return audiogram.NotHeardCell(), false, nil
			}
			level += bracketAscent
			if skip.Triggered() {
				return audiogram.Cell{}, true, nil
			}
			var err error
			if heard, err = play(); err != nil {
				return audiogram.Cell{}, false, err
			}
		}
		answers = append(answers, level)
		if threshold, ok := answers.Repeated(); ok {
			s.logger.Info("threshold found", "frequency", freq, "ear", ear, "level", threshold, "tries", try)
			return audiogram.MeasuredCell(threshold), false, nil
		}
		if try == bracketReplayTry {
			level = min(level+bracketReplayRise, s.settings.MaxLevel)
			if skip.Triggered() {
				return audiogram.Cell{}, true, nil
			}
			var err error
			if heard, err = play(); err != nil {
				return audiogram.Cell{}, false, err
			}
			answers = nil
		}
	}
	return audiogram.Cell{}, false, fmt.Errorf("%d Hz on %s ear after %d tries: %w", freq, ear, bracketMaxTries, apperrors.ErrNonConvergent)
}

// retest brackets the first measured frequency again and overwrites it.
func (s *ThresholdSearch) retest(ctx context.Context, skip *domain.SkipToken, ear audiogram.Ear, start int) (passed, skipped bool, err error) {
	for _, freq := range audiogram.EvaluationOrder {
		previous := s.record.Get(freq, ear)
		if previous.State != audiogram.Measured {
			continue
		}
		cell, skipped, err := s.bracket(ctx, skip, freq, ear, start)
		if err != nil || skipped {
			return true, skipped, err
		}
		if err := s.set(freq, ear, cell); err != nil {
			return false, false, err
		}
		passed = cell.State == audiogram.Measured && abs(cell.Level-previous.Level) <= retestTolerance
		s.logger.Info("retest", "frequency", freq, "ear", ear, "first", previous.Level, "second", cell.String(), "passed", passed)
		return passed, false, nil
	}
	return true, false, nil
}

// skip writes the skip level to every frequency of the remaining ears,
// measured or not, and persists the record.
func (s *ThresholdSearch) skip(ctx context.Context, remaining, failed []audiogram.Ear) (domain.Result, error) {
	for _, ear := range remaining {
		for _, freq := range audiogram.EvaluationOrder {
			if err := s.set(freq, ear, audiogram.MeasuredCell(s.settings.SkipLevel)); err != nil {
				return s.abort(err)
			}
		}
	}
	s.logger.Info("threshold search skipped", "level", s.settings.SkipLevel, "ears", remaining)
	return s.finish(ctx, domain.Result{Success: len(failed) == 0, Skipped: true, FailedEars: failed}, true)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
