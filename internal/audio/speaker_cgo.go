//go:build cgo || windows || darwin

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

// SpeakerAvailable indicates whether the beep speaker backend is compiled in.
const SpeakerAvailable = true

// Speaker plays encoded WAV assets through the beep speaker. It reads the
// asset by reference, so file and inline assets are both exercised.
type Speaker struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	ctrl        *beep.Ctrl
	streamer    beep.StreamSeekCloser
}

// NewSpeaker creates a speaker that mixes at sampleRate.
func NewSpeaker(sampleRate int) *Speaker {
	return &Speaker{sampleRate: beep.SampleRate(sampleRate)}
}

func (s *Speaker) initSpeaker() error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	s.initialized = true
	return nil
}

// Play decodes the asset and starts it, cutting off the previous one.
func (s *Speaker) Play(asset *synth.Asset) error {
	rc, err := asset.Open()
	if err != nil {
		return err
	}
	streamer, format, err := wav.Decode(rc)
	if err != nil {
		_ = rc.Close()
		return fmt.Errorf("decode asset %q: %w", asset.Symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initSpeaker(); err != nil {
		_ = streamer.Close()
		return err
	}
	s.stopLocked()

	s.streamer = streamer
	s.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, s.sampleRate, streamer)}
	speaker.Play(s.ctrl)
	return nil
}

// stopLocked stops playback (must be called with lock held).
func (s *Speaker) stopLocked() {
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
		s.streamer = nil
	}
	s.ctrl = nil
}

// Close stops playback and clears the mixer.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if s.initialized {
		speaker.Clear()
	}
	return nil
}
