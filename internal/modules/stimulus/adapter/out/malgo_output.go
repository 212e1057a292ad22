package out

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	hclog "github.com/hashicorp/go-hclog"

	audiogram "audiometer/internal/modules/audiogram/domain"
	"audiometer/internal/platform/logging"
)

const outputChannels = 2

// MalgoOutput plays tones on the system playback device. The device runs for
// the lifetime of the output and renders silence between tones.
type MalgoOutput struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	logger     hclog.Logger

	mu      sync.Mutex
	samples []float32
	cursor  int
}

func NewMalgoOutput(sampleRate int, deviceName string, logger hclog.Logger) (*MalgoOutput, error) {
	logger = logging.OrNull(logger).Named("audio")
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	o := &MalgoOutput{ctx: ctx, sampleRate: sampleRate, logger: logger}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = outputChannels
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	if deviceName != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(deviceName)) {
					cfg.Playback.DeviceID = info.ID.Pointer()
					logger.Info("selected playback device", "name", info.Name())
					break
				}
			}
		}
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{Data: o.render})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	o.device = device
	logger.Debug("playback device started", "sample_rate", device.SampleRate())
	return o, nil
}

func (o *MalgoOutput) Play(frequency int, amplitude float64, duration time.Duration, channel audiogram.Ear) error {
	if amplitude > 1 {
		o.logger.Warn("tone amplitude clipped", "frequency", frequency, "amplitude", amplitude)
	}
	samples := Synthesize(frequency, amplitude, duration, channel, o.sampleRate)
	o.mu.Lock()
	o.samples = samples
	o.cursor = 0
	o.mu.Unlock()
	return nil
}

func (o *MalgoOutput) Stop() error {
	o.mu.Lock()
	o.samples = nil
	o.cursor = 0
	o.mu.Unlock()
	return nil
}

func (o *MalgoOutput) Close() error {
	if o.device != nil {
		o.device.Uninit()
		o.device = nil
	}
	if o.ctx != nil {
		err := o.ctx.Uninit()
		o.ctx.Free()
		o.ctx = nil
		return err
	}
	return nil
}

func (o *MalgoOutput) render(out, _ []byte, frameCount uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := int(frameCount) * outputChannels
	for i := 0; i < n && (i+1)*4 <= len(out); i++ {
		var v float32
		if o.cursor < len(o.samples) {
			v = o.samples[o.cursor]
			o.cursor++
		}
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
}
