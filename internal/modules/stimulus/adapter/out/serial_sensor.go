package out

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/tarm/serial"

	stimulusout "audiometer/internal/modules/stimulus/port/out"
	"audiometer/internal/platform/logging"
)

// SerialSensor listens to a patient response button on a serial line. Any
// byte received while sensing counts as a response.
type SerialSensor struct {
	port    *serial.Port
	sensing sensing
	logger  hclog.Logger
	done    chan struct{}
	once    sync.Once
}

func NewSerialSensor(name string, baud int, logger hclog.Logger) (*SerialSensor, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open response button %s: %w", name, err)
	}
	s := &SerialSensor{
		port:   port,
		logger: logging.OrNull(logger).Named("serial-button"),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *SerialSensor) Start(onDetect func()) (stimulusout.SensingHandle, error) {
	return s.sensing.start(onDetect), nil
}

func (s *SerialSensor) Stop(handle stimulusout.SensingHandle) error {
	s.sensing.stop(handle)
	return nil
}

func (s *SerialSensor) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}

func (s *SerialSensor) readLoop() {
	buf := make([]byte, 16)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			if !s.sensing.fire() {
				s.logger.Trace("button press outside listening window")
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Warn("read response button", "error", err)
			time.Sleep(time.Second)
		}
	}
}
