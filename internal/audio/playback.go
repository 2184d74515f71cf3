// internal/audio/playback.go
// Package audio hands rendered Morse assets to a sound device.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

var (
	ErrNotInitialized = errors.New("audio playback not initialized")
	ErrAlreadyRunning = errors.New("audio playback already running")
	ErrNotRunning     = errors.New("audio playback not running")
	// ErrSampleRateMismatch indicates an asset rendered for a different device rate
	ErrSampleRateMismatch = errors.New("asset sample rate does not match the device")
)

// Config holds audio playback configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // must match the synthesizer rate
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns the default device at the synthesizer's default rate
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  uint32(synth.DefaultSampleRate),
		BufferSize:  512,
	}
}

// Playback streams int16 mono PCM to a malgo playback device. A new asset
// replaces whatever is still queued.
type Playback struct {
	config  Config
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running atomic.Bool
	mu      sync.Mutex

	queueMu sync.Mutex
	queue   []int16
}

// New creates a new playback instance
func New(cfg Config) *Playback {
	return &Playback{config: cfg}
}

// Init initializes the audio backend
func (p *Playback) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = ctx
	return nil
}

// ListDevices returns available playback devices
func (p *Playback) ListDevices() ([]malgo.DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listDevices()
}

func (p *Playback) listDevices() ([]malgo.DeviceInfo, error) {
	if p.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start opens the device and begins pulling queued samples. The device is
// stopped when ctx is cancelled.
func (p *Playback) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrAlreadyRunning
	}
	if p.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = p.config.SampleRate
	deviceConfig.PeriodSizeInFrames = p.config.BufferSize
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1

	if p.config.DeviceIndex >= 0 {
		devices, err := p.listDevices()
		if err != nil {
			return err
		}
		if p.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				p.config.DeviceIndex, len(devices))
		}
		deviceConfig.Playback.DeviceID = devices[p.config.DeviceIndex].ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, _ uint32) {
			p.queueMu.Lock()
			p.queue = fillFrames(output, p.queue)
			p.queueMu.Unlock()
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	p.device = device
	p.running.Store(true)

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()
	return nil
}

// Play queues the asset's samples, replacing any unplayed remainder.
func (p *Playback) Play(asset *synth.Asset) error {
	if !p.running.Load() {
		return ErrNotRunning
	}
	if asset.SampleRate != int(p.config.SampleRate) {
		return fmt.Errorf("%w: %d Hz, device %d Hz", ErrSampleRateMismatch, asset.SampleRate, p.config.SampleRate)
	}
	p.queueMu.Lock()
	p.queue = append(p.queue[:0:0], asset.PCM...)
	p.queueMu.Unlock()
	return nil
}

// Pending returns the number of queued samples not yet handed to the device.
func (p *Playback) Pending() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return len(p.queue)
}

// Stop stops playback
func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}
	p.stopDevice()
	return nil
}

func (p *Playback) stopDevice() {
	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}
	p.running.Store(false)
	p.queueMu.Lock()
	p.queue = nil
	p.queueMu.Unlock()
}

// Close releases all audio resources
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		p.stopDevice()
	}
	if p.ctx != nil {
		if err := p.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

// IsRunning returns true if the device is started
func (p *Playback) IsRunning() bool {
	return p.running.Load()
}

// fillFrames writes as many little-endian int16 samples from pcm into out as
// fit, pads the rest with silence and returns the unwritten samples.
func fillFrames(out []byte, pcm []int16) []int16 {
	n := min(len(out)/2, len(pcm))
	for i := 0; i < n; i++ {
		v := uint16(pcm[i])
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	clear(out[2*n:])
	return pcm[n:]
}
