// ABOUTME: Malgo-based microphone capture
// ABOUTME: Uses miniaudio via malgo with an f32 capture callback
package input

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// Malgo captures from the default input device
type Malgo struct {
	log      *zap.SugaredLogger
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	channels int
	faults   faults

	capture atomic.Pointer[CaptureFunc]
	closing atomic.Bool

	// callback-local scratch
	scratch []float32

	mu sync.Mutex
}

// NewMalgo creates a new Malgo input
func NewMalgo(log *zap.SugaredLogger) Input {
	return &Malgo{
		log:    log,
		faults: newFaults(),
	}
}

// Open initializes the capture device. miniaudio converts the device's
// native layout to the requested channel count.
func (m *Malgo) Open(channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(channels)
	deviceConfig.SampleRate = audio.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pInputSamples, frameCount)
		},
		Stop: m.onStop,
	})
	if err != nil {
		m.freeContext()
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	m.device = device
	m.channels = int(device.CaptureChannels())

	m.log.Infow("Audio input initialized",
		"backend", BackendMalgo,
		"sample_rate", audio.SampleRate,
		"channels", m.channels,
	)
	return nil
}

// Start begins capturing
func (m *Malgo) Start(capture CaptureFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}

	m.capture.Store(&capture)
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

// Errors reports device failures
func (m *Malgo) Errors() <-chan error {
	return m.faults
}

func (m *Malgo) dataCallback(pInput []byte, frameCount uint32) {
	capture := m.capture.Load()
	if capture == nil {
		return
	}

	total := int(frameCount) * m.channels
	if cap(m.scratch) < total {
		m.scratch = make([]float32, total)
	}
	n := audio.Float32FromLE(m.scratch[:total], pInput)
	(*capture)(m.scratch[:n])
}

func (m *Malgo) onStop() {
	if m.closing.Load() {
		return
	}
	m.log.Errorw("Capture device stopped unexpectedly", "backend", BackendMalgo)
	m.faults.report(errors.New("capture device stopped"))
}

// Close releases input resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closing.Store(true)
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.log.Warnw("Capture device stop error", "error", err)
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
