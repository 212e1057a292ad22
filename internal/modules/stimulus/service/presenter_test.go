package service_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/modules/stimulus/domain"
	stimulusout "audiometer/internal/modules/stimulus/port/out"
	"audiometer/internal/modules/stimulus/service"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	return ctx.Err()
}

// fakeDevice responds after a number of polls, or never when respondAfter < 0.
type fakeDevice struct {
	respondAfter int
	playErr      error
	onDetect     func()
	sleeper      *fakeSleeper
	events       []string
}

func (f *fakeDevice) Play(int, float64, time.Duration, audiogram.Ear) error {
	f.events = append(f.events, "play")
	if f.playErr != nil {
		return f.playErr
	}
	if f.respondAfter == 0 {
		f.onDetect()
	}
	return nil
}

func (f *fakeDevice) Stop() error {
	f.events = append(f.events, "audio-stop")
	return nil
}

func (f *fakeDevice) Start(onDetect func()) (stimulusout.SensingHandle, error) {
	f.events = append(f.events, "sense-start")
	f.onDetect = onDetect
	return 1, nil
}

type sensorView struct{ d *fakeDevice }

func (s sensorView) Start(onDetect func()) (stimulusout.SensingHandle, error) {
	return s.d.Start(onDetect)
}

func (s sensorView) Stop(stimulusout.SensingHandle) error {
	s.d.events = append(s.d.events, "sense-stop")
	return nil
}

type pollingSleeper struct {
	fakeSleeper
	device *fakeDevice
	polls  int
}

func (p *pollingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d == domain.PollInterval {
		p.polls++
		if p.device.respondAfter > 0 && p.polls == p.device.respondAfter {
			p.device.onDetect()
		}
	}
	return p.fakeSleeper.Sleep(ctx, d)
}

func newPresenter(device *fakeDevice, seed uint64) (*service.Presenter, *pollingSleeper) {
	sleeper := &pollingSleeper{device: device}
	rng := rand.New(rand.NewPCG(seed, 0))
	return service.NewPresenter(device, sensorView{device}, sleeper, rng, nil), sleeper
}

func tone() domain.Tone {
	return domain.Tone{Frequency: 1000, Level: 40, Duration: time.Second, Ear: audiogram.EarLeft}
}

func TestHeardPausesWithinBounds(t *testing.T) {
	t.Parallel()
	for seed := uint64(1); seed <= 50; seed++ {
		device := &fakeDevice{respondAfter: 3}
		p, sleeper := newPresenter(device, seed)
		heard, err := p.Present(context.Background(), tone(), 0.1)
		if err != nil || !heard {
			t.Fatalf("seed %d: expected heard, got %v (%v)", seed, heard, err)
		}
		pause := sleeper.slept[len(sleeper.slept)-1]
		if pause < domain.PauseMin || pause > domain.PauseMax {
			t.Fatalf("seed %d: pause %v outside [%v, %v]", seed, pause, domain.PauseMin, domain.PauseMax)
		}
		if sleeper.polls != 3 {
			t.Fatalf("seed %d: expected 3 polls, got %d", seed, sleeper.polls)
		}
	}
}

func TestNotHeardWaitsFullWindowWithoutPause(t *testing.T) {
	t.Parallel()
	device := &fakeDevice{respondAfter: -1}
	p, sleeper := newPresenter(device, 7)
	heard, err := p.Present(context.Background(), tone(), 0.1)
	if err != nil || heard {
		t.Fatalf("expected not heard, got %v (%v)", heard, err)
	}
	want := int(domain.ListenWindow / domain.PollInterval)
	if len(sleeper.slept) != want {
		t.Fatalf("expected %d polls and no pause, got %d sleeps", want, len(sleeper.slept))
	}
	for _, d := range sleeper.slept {
		if d != domain.PollInterval {
			t.Fatalf("unexpected sleep %v", d)
		}
	}
}

func TestReleaseHappensOnAudioError(t *testing.T) {
	t.Parallel()
	device := &fakeDevice{respondAfter: -1, playErr: errors.New("device gone")}
	p, _ := newPresenter(device, 1)
	if _, err := p.Present(context.Background(), tone(), 0.1); err == nil {
		t.Fatalf("expected play error")
	}
	want := []string{"sense-start", "play", "audio-stop", "sense-stop"}
	if len(device.events) != len(want) {
		t.Fatalf("expected %v, got %v", want, device.events)
	}
	for i := range want {
		if device.events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, device.events)
		}
	}
}

func TestReleaseHappensBeforePause(t *testing.T) {
	t.Parallel()
	device := &fakeDevice{respondAfter: 0}
	p, sleeper := newPresenter(device, 3)
	heard, err := p.Present(context.Background(), tone(), 0.1)
	if err != nil || !heard {
		t.Fatalf("expected heard, got %v (%v)", heard, err)
	}
	if last := device.events[len(device.events)-1]; last != "sense-stop" {
		t.Fatalf("expected sensing released last, got %v", device.events)
	}
	if len(sleeper.slept) != 1 {
		t.Fatalf("immediate response should only pause once, got %v", sleeper.slept)
	}
}

func TestSeededPausesAreReproducible(t *testing.T) {
	t.Parallel()
	run := func() []time.Duration {
		var pauses []time.Duration
		device := &fakeDevice{respondAfter: 0}
		p, sleeper := newPresenter(device, 42)
		for i := 0; i < 5; i++ {
			if _, err := p.Present(context.Background(), tone(), 0.1); err != nil {
				t.Fatalf("present: %v", err)
			}
		}
		pauses = append(pauses, sleeper.slept...)
		return pauses
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pause %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestCancelledContextAbortsPresentation(t *testing.T) {
	t.Parallel()
	device := &fakeDevice{respondAfter: -1}
	p, _ := newPresenter(device, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Present(ctx, tone(), 0.1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if device.events[len(device.events)-1] != "sense-stop" {
		t.Fatalf("cancelled presentation must still release, got %v", device.events)
	}
}
