package out

import (
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	audiogram "audiometer/internal/modules/audiogram/domain"
	stimulusout "audiometer/internal/modules/stimulus/port/out"
	"audiometer/internal/platform/logging"
)

// DriveLevelFunc converts a hearing level to the amplitude a tone needs on
// the active headphone.
type DriveLevelFunc func(levelHL float64, frequency int, ear audiogram.Ear) (float64, error)

// SimulatedListener stands in for both the headphone and the listener: a
// tone is heard when its amplitude reaches the listener threshold.
type SimulatedListener struct {
	driveLevel DriveLevelFunc
	logger     hclog.Logger
	sensing    sensing

	mu         sync.Mutex
	thresholds map[int]float64
	fallback   float64
}

func NewSimulatedListener(thresholdHL float64, driveLevel DriveLevelFunc, logger hclog.Logger) *SimulatedListener {
	return &SimulatedListener{
		driveLevel: driveLevel,
		logger:     logging.OrNull(logger).Named("simulated-listener"),
		thresholds: map[int]float64{},
		fallback:   thresholdHL,
	}
}

// SetThreshold overrides the hearing threshold at one frequency.
func (s *SimulatedListener) SetThreshold(frequency int, thresholdHL float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[frequency] = thresholdHL
}

func (s *SimulatedListener) threshold(frequency int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.thresholds[frequency]; ok {
		return t
	}
	return s.fallback
}

// Output is the headphone side of the listener.
func (s *SimulatedListener) Output() stimulusout.AudioOutput { return simulatedOutput{s} }

// Sensor is the response side of the listener.
func (s *SimulatedListener) Sensor() stimulusout.ResponseSensor { return simulatedSensor{s} }

func (s *SimulatedListener) play(frequency int, amplitude float64, channel audiogram.Ear) error {
	threshold := s.threshold(frequency)
	limit, err := s.driveLevel(threshold, frequency, channel)
	if err != nil {
		return err
	}
	if amplitude >= limit*(1-1e-9) {
		s.logger.Trace("tone heard", "frequency", frequency, "ear", channel, "threshold", threshold)
		s.sensing.fire()
	}
	return nil
}

type simulatedOutput struct{ l *SimulatedListener }

func (o simulatedOutput) Play(frequency int, amplitude float64, _ time.Duration, channel audiogram.Ear) error {
	return o.l.play(frequency, amplitude, channel)
}

func (o simulatedOutput) Stop() error { return nil }

type simulatedSensor struct{ l *SimulatedListener }

func (s simulatedSensor) Start(onDetect func()) (stimulusout.SensingHandle, error) {
	return s.l.sensing.start(onDetect), nil
}

func (s simulatedSensor) Stop(handle stimulusout.SensingHandle) error {
	s.l.sensing.stop(handle)
	return nil
}
