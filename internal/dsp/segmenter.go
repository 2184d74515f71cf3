// internal/dsp/segmenter.go
package dsp

import (
	"errors"
	"fmt"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

var (
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
	// ErrInvalidHysteresis indicates hysteresis must be at least 1
	ErrInvalidHysteresis = errors.New("hysteresis must be at least 1")
	// ErrGoertzelRequired indicates Goertzel instance is required
	ErrGoertzelRequired = errors.New("goertzel instance is required")
	// ErrInvalidMinLevel indicates the silence floor must be non-negative
	ErrInvalidMinLevel = errors.New("min level must be non-negative")
	// ErrInvalidDit indicates the reference dit length must be positive
	ErrInvalidDit = errors.New("dit length must be positive")
)

// Segment is a run of tone or silence in a rendered buffer.
type Segment struct {
	Tone     bool
	Start    time.Duration
	Duration time.Duration
}

// SegmenterConfig holds configuration for the tone segmenter.
type SegmenterConfig struct {
	// Threshold is the fraction of the loudest block that counts as tone (0.0-1.0)
	Threshold float64
	// Hysteresis is consecutive blocks required to confirm a state change
	Hysteresis int
	// MinLevel is the magnitude the loudest block must exceed for the buffer to hold any tone
	MinLevel float64
}

// DefaultSegmenterConfig suits clean synthesized audio scaled to full range.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{Threshold: 0.5, Hysteresis: 1, MinLevel: 0.25}
}

// Segmenter splits a complete PCM buffer into tone and silence runs. The
// tone threshold is relative to the loudest block.
type Segmenter struct {
	config   SegmenterConfig
	goertzel *Goertzel
}

// NewSegmenter validates cfg and returns a Segmenter.
func NewSegmenter(cfg SegmenterConfig, goertzel *Goertzel) (*Segmenter, error) {
	if goertzel == nil {
		return nil, ErrGoertzelRequired
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		return nil, ErrInvalidThreshold
	}
	if cfg.Hysteresis < 1 {
		return nil, ErrInvalidHysteresis
	}
	if cfg.MinLevel < 0 {
		return nil, ErrInvalidMinLevel
	}
	return &Segmenter{config: cfg, goertzel: goertzel}, nil
}

// Levels returns the Goertzel magnitude of each whole block of samples.
func (s *Segmenter) Levels(samples []float32) []float64 {
	n := s.goertzel.BlockSize()
	levels := make([]float64, 0, len(samples)/n)
	for i := 0; i+n <= len(samples); i += n {
		levels = append(levels, s.goertzel.magnitude(samples[i:i+n]))
	}
	return levels
}

// Segments returns alternating silence and tone runs. A buffer whose loudest
// block stays at or below MinLevel is a single silent segment.
func (s *Segmenter) Segments(samples []float32) []Segment {
	levels := s.Levels(samples)
	if len(levels) == 0 {
		return nil
	}

	peak := 0.0
	for _, l := range levels {
		peak = max(peak, l)
	}
	blockDur := time.Duration(float64(s.goertzel.BlockSize()) / s.goertzel.Config().SampleRate * float64(time.Second))
	if peak <= s.config.MinLevel {
		return []Segment{{Tone: false, Duration: blockDur * time.Duration(len(levels))}}
	}

	var segs []Segment
	state := false
	runStart := 0     // first block of the current confirmed state
	pendingStart := 0 // first block of the unconfirmed opposite state
	pending := 0
	emit := func(end int) {
		if end > runStart {
			segs = append(segs, Segment{
				Tone:     state,
				Start:    blockDur * time.Duration(runStart),
				Duration: blockDur * time.Duration(end-runStart),
			})
		}
	}

	for i, l := range levels {
		tone := l/peak > s.config.Threshold
		if tone == state {
			pending = 0
			continue
		}
		if pending == 0 {
			pendingStart = i
		}
		pending++
		if pending >= s.config.Hysteresis {
			emit(pendingStart)
			state = tone
			runStart = pendingStart
			pending = 0
		}
	}
	emit(len(levels))
	return segs
}

// Marks returns only the tone segments.
func Marks(segs []Segment) []Segment {
	var out []Segment
	for _, seg := range segs {
		if seg.Tone {
			out = append(out, seg)
		}
	}
	return out
}

// Classify maps tone segments onto dits and dahs. Anything at least twice
// the reference dit is a dah.
func Classify(marks []Segment, dit time.Duration) (cw.Pattern, error) {
	if dit <= 0 {
		return nil, ErrInvalidDit
	}
	if len(marks) == 0 {
		return nil, cw.ErrEmptyPattern
	}
	p := make(cw.Pattern, 0, len(marks))
	for i, m := range marks {
		if !m.Tone {
			return nil, fmt.Errorf("segment %d is silence", i)
		}
		if m.Duration >= 2*dit {
			p = append(p, cw.Dah)
		} else {
			p = append(p, cw.Dit)
		}
	}
	return p, nil
}
