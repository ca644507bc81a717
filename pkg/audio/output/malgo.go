// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with an f32 callback that pulls from a RenderFunc
package output

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	log      *zap.SugaredLogger
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	channels int
	faults   faults

	render  atomic.Pointer[RenderFunc]
	closing atomic.Bool

	// callback-local scratch
	scratch []float32

	mu sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo(log *zap.SugaredLogger) Output {
	return &Malgo{
		log:    log,
		faults: newFaults(),
	}
}

// Open initializes the playback device. The device is not started until
// Start is called.
func (m *Malgo) Open(channels int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return m.channels, nil
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(max(channels, 0))
	deviceConfig.SampleRate = audio.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
		Stop: m.onStop,
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		m.freeContext()
		return 0, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	native := int(device.PlaybackChannels())
	m.channels = clampChannels(native)
	if m.channels != native {
		// miniaudio converts for us when we ask for a specific layout
		device.Uninit()
		deviceConfig.Playback.Channels = uint32(m.channels)
		device, err = malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
		if err != nil {
			m.freeContext()
			return 0, fmt.Errorf("failed to initialize playback device: %w", err)
		}
	}
	m.device = device

	m.log.Infow("Audio output initialized",
		"backend", BackendMalgo,
		"sample_rate", audio.SampleRate,
		"channels", m.channels,
		"device_channels", native,
	)

	return m.channels, nil
}

// Start begins playback
func (m *Malgo) Start(render RenderFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}

	m.render.Store(&render)
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Errors reports device failures
func (m *Malgo) Errors() <-chan error {
	return m.faults
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	totalSamples := int(frameCount) * m.channels
	if cap(m.scratch) < totalSamples {
		m.scratch = make([]float32, totalSamples)
	}
	samples := m.scratch[:totalSamples]

	if render := m.render.Load(); render != nil {
		(*render)(samples)
	} else {
		clear(samples)
	}

	audio.PutFloat32LE(pOutput, samples)
}

func (m *Malgo) onStop() {
	if m.closing.Load() {
		return
	}
	m.log.Errorw("Playback device stopped unexpectedly", "backend", BackendMalgo)
	m.faults.report(errors.New("playback device stopped"))
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closing.Store(true)
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.log.Warnw("Device stop error", "error", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	m.freeContext()
	return nil
}

// freeContext releases the malgo context (must hold m.mu)
func (m *Malgo) freeContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		m.log.Warnw("Malgo context uninit error", "error", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}
