package out

import (
	"time"

	audiogram "audiometer/internal/modules/audiogram/domain"
)

// AudioOutput plays a tone without blocking.
type AudioOutput interface {
	Play(frequency int, amplitude float64, duration time.Duration, channel audiogram.Ear) error
	Stop() error
}

type SensingHandle uint64

// ResponseSensor reports listener responses while sensing is active.
type ResponseSensor interface {
	Start(onDetect func()) (SensingHandle, error)
	Stop(handle SensingHandle) error
}
