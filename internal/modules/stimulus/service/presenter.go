package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"audiometer/internal/modules/stimulus/domain"
	stimulusout "audiometer/internal/modules/stimulus/port/out"
	"audiometer/internal/platform/clock"
	"audiometer/internal/platform/logging"
)

// Presenter plays one tone and waits for a response. It is safe for
// sequential use by one procedure at a time.
type Presenter struct {
	audio   stimulusout.AudioOutput
	sensor  stimulusout.ResponseSensor
	sleeper clock.Sleeper
	mu      sync.Mutex
	rng     *rand.Rand
	logger  hclog.Logger
}

func NewPresenter(audio stimulusout.AudioOutput, sensor stimulusout.ResponseSensor, sleeper clock.Sleeper, rng *rand.Rand, logger hclog.Logger) *Presenter {
	return &Presenter{
		audio:   audio,
		sensor:  sensor,
		sleeper: sleeper,
		rng:     rng,
		logger:  logging.OrNull(logger).Named("presenter"),
	}
}

func (p *Presenter) Present(ctx context.Context, tone domain.Tone, amplitude float64) (bool, error) {
	heard, err := p.listen(ctx, tone, amplitude)
	if err != nil {
		return false, err
	}
	p.logger.Debug("tone presented", "frequency", tone.Frequency, "level", tone.Level, "ear", tone.Ear, "heard", heard)
	if heard {
		if err := p.sleeper.Sleep(ctx, p.pause()); err != nil {
			return false, err
		}
	}
	return heard, nil
}

// listen releases audio and sensing on every exit path before returning.
func (p *Presenter) listen(ctx context.Context, tone domain.Tone, amplitude float64) (heard bool, err error) {
	var detected atomic.Bool
	handle, err := p.sensor.Start(func() { detected.Store(true) })
	if err != nil {
		return false, fmt.Errorf("start response sensing: %w", err)
	}
	defer func() {
		audioErr := p.audio.Stop()
		sensorErr := p.sensor.Stop(handle)
		if err == nil {
			if releaseErr := errors.Join(audioErr, sensorErr); releaseErr != nil {
				err = fmt.Errorf("release presentation: %w", releaseErr)
			}
		}
	}()

	if err := p.audio.Play(tone.Frequency, amplitude, tone.Duration, tone.Ear); err != nil {
		return false, fmt.Errorf("play tone: %w", err)
	}
	for waited := time.Duration(0); waited < domain.ListenWindow; waited += domain.PollInterval {
		if detected.Load() {
			return true, nil
		}
		if err := p.sleeper.Sleep(ctx, domain.PollInterval); err != nil {
			return false, err
		}
	}
	return detected.Load(), nil
}

func (p *Presenter) pause() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	span := float64(domain.PauseMax - domain.PauseMin)
	return domain.PauseMin + time.Duration(p.rng.Float64()*span)
}
