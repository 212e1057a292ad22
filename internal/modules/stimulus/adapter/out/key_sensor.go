package out

import (
	stimulusout "audiometer/internal/modules/stimulus/port/out"
)

// KeySensor turns key presses forwarded by the terminal UI into responses.
type KeySensor struct {
	sensing sensing
}

func NewKeySensor() *KeySensor {
	return &KeySensor{}
}

func (k *KeySensor) Start(onDetect func()) (stimulusout.SensingHandle, error) {
	return k.sensing.start(onDetect), nil
}

func (k *KeySensor) Stop(handle stimulusout.SensingHandle) error {
	k.sensing.stop(handle)
	return nil
}

// Press reports a response. Presses outside a listening window are dropped.
func (k *KeySensor) Press() bool {
	return k.sensing.fire()
}
