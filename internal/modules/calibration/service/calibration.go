package service

import (
	"context"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"audiometer/internal/modules/calibration/domain"
	calibrationout "audiometer/internal/modules/calibration/port/out"
	apperrors "audiometer/internal/platform/errors"
	"audiometer/internal/platform/logging"
)

const Kind = "calibration"

// Calibration drives one sweep over the calibration steps. Only one sweep is
// held at a time; starting again discards the unfinished one.
type Calibration struct {
	mu       sync.Mutex
	player   calibrationout.TonePlayer
	store    calibrationout.ProfileStore
	run      *domain.Run
	finished bool
	logger   hclog.Logger
}

func NewCalibration(player calibrationout.TonePlayer, store calibrationout.ProfileStore, logger hclog.Logger) *Calibration {
	return &Calibration{player: player, store: store, logger: logging.OrNull(logger).Named("calibration")}
}

func (c *Calibration) Kind() string { return Kind }

func (c *Calibration) Start(startLevel float64, reference domain.ReferenceTable) (domain.Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run := domain.NewRun(startLevel, reference)
	step, _ := run.Cursor.Next()
	c.run = run
	c.finished = false
	c.logger.Info("calibration started", "headphone", reference.Headphone, "start_level", startLevel)
	return step, c.present(step)
}

// Advance moves to the next step and presents it. It reports false once the
// sequence is exhausted.
func (c *Calibration) Advance() (domain.Step, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return domain.Step{}, false, apperrors.ErrNoCalibrationRun
	}
	step, ok := c.run.Cursor.Next()
	if !ok {
		return domain.Step{}, false, c.player.Stop()
	}
	return step, true, c.present(step)
}

func (c *Calibration) Repeat() (domain.Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return domain.Step{}, apperrors.ErrNoCalibrationRun
	}
	step, ok := c.run.Cursor.Current()
	if !ok {
		return domain.Step{}, apperrors.ErrNoCalibrationRun
	}
	return step, c.present(step)
}

func (c *Calibration) SetMeasurement(raw string) (domain.Step, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return domain.Step{}, 0, apperrors.ErrNoCalibrationRun
	}
	step, offset, err := c.run.Measure(raw)
	if err != nil {
		return domain.Step{}, 0, err
	}
	c.logger.Debug("measurement stored", "frequency", step.Frequency, "ear", step.Ear, "offset", offset)
	return step, offset, nil
}

func (c *Calibration) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player.Stop()
}

// Finalize replaces the stored profile with the measured one.
func (c *Calibration) Finalize(ctx context.Context) (*domain.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return nil, apperrors.ErrNoCalibrationRun
	}
	profile, err := c.run.Profile()
	if err != nil {
		return nil, err
	}
	if err := c.player.Stop(); err != nil {
		c.logger.Warn("stop tone failed", "error", err)
	}
	if err := c.store.Replace(ctx, profile); err != nil {
		return nil, fmt.Errorf("store calibration profile: %w", err)
	}
	c.run = nil
	c.finished = true
	c.logger.Info("calibration finalized", "entries", profile.Len())
	return profile, nil
}

func (c *Calibration) Current() (domain.Step, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return domain.Step{}, 0, false
	}
	step, ok := c.run.Cursor.Current()
	if !ok {
		return domain.Step{}, 0, false
	}
	expected, err := c.run.ExpectedSPL(step)
	if err != nil {
		return step, 0, true
	}
	return step, expected, true
}

func (c *Calibration) Position() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return 0, domain.NewCursor().Len()
	}
	return c.run.Cursor.Position(), c.run.Cursor.Len()
}

func (c *Calibration) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return 1
	}
	if c.run == nil {
		return 0
	}
	return c.run.Progress()
}

func (c *Calibration) present(step domain.Step) error {
	expected, err := c.run.ExpectedSPL(step)
	if err != nil {
		return err
	}
	if err := c.player.Stop(); err != nil {
		return fmt.Errorf("stop previous tone: %w", err)
	}
	c.logger.Debug("calibration tone", "frequency", step.Frequency, "ear", step.Ear, "expected_spl", expected)
	if err := c.player.Play(step.Frequency, domain.Amplitude(expected), domain.ToneDuration, step.Ear); err != nil {
		return fmt.Errorf("play calibration tone: %w", err)
	}
	return nil
}
