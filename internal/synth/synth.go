// internal/synth/synth.go
// Package synth renders Morse timing plans into 16-bit PCM and packages them as WAV assets.
package synth

import (
	"errors"
	"math"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

// DefaultSampleRate is the output rate in Hz when none is configured
const DefaultSampleRate = 44100

var (
	// ErrInvalidSampleRate indicates sample rate must be between 8000 and 192000 Hz
	ErrInvalidSampleRate = errors.New("sample rate must be between 8000 and 192000 Hz")
	// ErrInvalidVolume indicates volume must be within (0, 1]
	ErrInvalidVolume = errors.New("volume must be greater than 0 and at most 1")
	// ErrInvalidFade indicates fade length must be non-negative
	ErrInvalidFade = errors.New("fade must be non-negative")
	// ErrInvalidFrequency indicates tone frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
)

// Config holds synthesizer settings.
type Config struct {
	// SampleRate in Hz (from config: sample_rate)
	SampleRate int
	// Volume is the amplitude ceiling, 0-1 (from config: volume)
	Volume float64
	// Fade is the linear ramp applied to both ends of each mark (from config: fade_ms)
	Fade time.Duration
}

// DefaultConfig returns CD-rate mono output at half volume with 10ms fades.
func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		Volume:     0.5,
		Fade:       10 * time.Millisecond,
	}
}

// Synthesizer turns timing plans into PCM samples.
type Synthesizer struct {
	config      Config
	fadeSamples int
}

// New validates cfg and returns a Synthesizer.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.Volume <= 0 || cfg.Volume > 1 {
		return nil, ErrInvalidVolume
	}
	if cfg.Fade < 0 {
		return nil, ErrInvalidFade
	}
	return &Synthesizer{
		config:      cfg,
		fadeSamples: samplesFor(cfg.SampleRate, cfg.Fade),
	}, nil
}

// Config returns the synthesizer configuration.
func (s *Synthesizer) Config() Config {
	return s.config
}

// Render produces mono PCM for plan at the given tone frequency.
// A fallback plan yields nil: there is nothing to play.
func (s *Synthesizer) Render(plan cw.Plan, frequency float64) ([]int16, error) {
	if frequency <= 0 || frequency >= float64(s.config.SampleRate)/2 {
		return nil, ErrInvalidFrequency
	}
	if plan.Fallback() {
		return nil, nil
	}

	total := 0
	for _, e := range plan.Elements {
		total += samplesFor(s.config.SampleRate, e.Tone) + samplesFor(s.config.SampleRate, e.Gap)
	}
	out := make([]int16, 0, total)
	for _, e := range plan.Elements {
		out = s.appendTone(out, e.Tone, frequency)
		// Gap is zero after the final mark.
		out = append(out, make([]int16, samplesFor(s.config.SampleRate, e.Gap))...)
	}
	return out, nil
}

func (s *Synthesizer) appendTone(out []int16, d time.Duration, frequency float64) []int16 {
	n := samplesFor(s.config.SampleRate, d)
	if n == 0 {
		return out
	}
	fade := s.fadeSamples
	applyFade := fade > 0 && n > 2*fade
	scale := math.MaxInt16 * s.config.Volume
	step := 2 * math.Pi * frequency / float64(s.config.SampleRate)

	for i := 0; i < n; i++ {
		v := math.Sin(step * float64(i))
		if applyFade {
			v *= envelope(i, n, fade)
		}
		out = append(out, int16(v*scale))
	}
	return out
}

// envelope is a linear 0..1 ramp over the first and last fade samples.
func envelope(i, n, fade int) float64 {
	if fade < 2 {
		return 1
	}
	switch {
	case i < fade:
		return float64(i) / float64(fade-1)
	case i >= n-fade:
		return float64(n-1-i) / float64(fade-1)
	default:
		return 1
	}
}

func samplesFor(rate int, d time.Duration) int {
	return int(float64(rate) * d.Seconds())
}
