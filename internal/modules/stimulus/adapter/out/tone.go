package out

import (
	"math"
	"time"

	"github.com/mjibson/go-dsp/window"

	audiogram "audiometer/internal/modules/audiogram/domain"
)

const rampDuration = 20 * time.Millisecond

// Synthesize renders a sine tone as interleaved stereo float32 frames with
// Hann shaped onset and offset ramps. The unused channel stays silent.
func Synthesize(frequency int, amplitude float64, duration time.Duration, channel audiogram.Ear, sampleRate int) []float32 {
	frames := int(duration.Seconds() * float64(sampleRate))
	if frames <= 0 {
		return nil
	}
	if amplitude > 1 {
		amplitude = 1
	}
	ramp := int(rampDuration.Seconds() * float64(sampleRate))
	if ramp*2 > frames {
		ramp = frames / 2
	}
	envelope := window.Hann(ramp*2 + 1)

	out := make([]float32, frames*2)
	step := 2 * math.Pi * float64(frequency) / float64(sampleRate)
	for i := 0; i < frames; i++ {
		gain := 1.0
		switch {
		case i < ramp:
			gain = envelope[i]
		case i >= frames-ramp:
			gain = envelope[ramp+1+i-(frames-ramp)]
		}
		v := float32(amplitude * gain * math.Sin(step*float64(i)))
		if channel != audiogram.EarRight {
			out[2*i] = v
		}
		if channel != audiogram.EarLeft {
			out[2*i+1] = v
		}
	}
	return out
}
