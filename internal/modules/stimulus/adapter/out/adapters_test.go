package out_test

import (
	"math"
	"testing"
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
	stimulusout "audiometer/internal/modules/stimulus/adapter/out"
)

func TestSynthesizeRoutesChannelsAndRamps(t *testing.T) {
	t.Parallel()
	const rate = 8000
	samples := stimulusout.Synthesize(1000, 0.5, 100*time.Millisecond, audiogram.EarRight, rate)
	if len(samples) != 2*800 {
		t.Fatalf("expected 800 stereo frames, got %d samples", len(samples))
	}
	var peak float64
	for i := 0; i < len(samples); i += 2 {
		if samples[i] != 0 {
			t.Fatalf("left channel must stay silent for a right ear tone")
		}
		peak = math.Max(peak, math.Abs(float64(samples[i+1])))
	}
	if peak > 0.5+1e-6 || peak < 0.45 {
		t.Fatalf("unexpected peak %g", peak)
	}
	if samples[1] != 0 || math.Abs(float64(samples[len(samples)-1])) > 1e-3 {
		t.Fatalf("tone must start and end near silence")
	}

	both := stimulusout.Synthesize(500, 2, 50*time.Millisecond, audiogram.EarBoth, rate)
	for i := 0; i < len(both); i += 2 {
		if both[i] != both[i+1] {
			t.Fatalf("binaural tone must be identical on both channels")
		}
		if math.Abs(float64(both[i])) > 1 {
			t.Fatalf("amplitude must be clipped to full scale")
		}
	}
}

func TestKeySensorOnlyFiresWhileSensing(t *testing.T) {
	t.Parallel()
	sensor := stimulusout.NewKeySensor()
	if sensor.Press() {
		t.Fatalf("press without sensing should be dropped")
	}
	count := 0
	first, _ := sensor.Start(func() { count++ })
	if !sensor.Press() || count != 1 {
		t.Fatalf("press while sensing should be delivered")
	}
	second, _ := sensor.Start(func() { count += 10 })
	_ = sensor.Stop(first)
	if !sensor.Press() || count != 11 {
		t.Fatalf("stopping a stale handle must not end the active window, count=%d", count)
	}
	_ = sensor.Stop(second)
	if sensor.Press() {
		t.Fatalf("press after stop should be dropped")
	}
}

func TestSimulatedListenerHearsAtThreshold(t *testing.T) {
	t.Parallel()
	drive := func(level float64, _ int, _ audiogram.Ear) (float64, error) {
		return 0.00002 * math.Pow(10, level/20), nil
	}
	listener := stimulusout.NewSimulatedListener(25, drive, nil)
	listener.SetThreshold(4000, 50)
	heard := false
	handle, _ := listener.Sensor().Start(func() { heard = true })
	defer listener.Sensor().Stop(handle)

	amp, _ := drive(20, 1000, audiogram.EarLeft)
	_ = listener.Output().Play(1000, amp, time.Second, audiogram.EarLeft)
	if heard {
		t.Fatalf("20 dB is below a 25 dB threshold")
	}
	amp, _ = drive(25, 1000, audiogram.EarLeft)
	_ = listener.Output().Play(1000, amp, time.Second, audiogram.EarLeft)
	if !heard {
		t.Fatalf("tone at threshold should be heard")
	}
	heard = false
	amp, _ = drive(45, 4000, audiogram.EarLeft)
	_ = listener.Output().Play(4000, amp, time.Second, audiogram.EarLeft)
	if heard {
		t.Fatalf("per frequency threshold should apply")
	}
}
