//go:build !cgo && !windows && !darwin

package audio

import "github.com/ColonelBlimp/cwtrainer/internal/synth"

// SpeakerAvailable indicates whether the beep speaker backend is compiled in.
// Audio requires CGO for native sound libraries on Linux.
const SpeakerAvailable = false

// Speaker is a no-op player for builds without cgo.
type Speaker struct{}

// NewSpeaker creates a no-op speaker.
func NewSpeaker(int) *Speaker {
	return &Speaker{}
}

// Play is a no-op when cgo is disabled.
func (s *Speaker) Play(*synth.Asset) error {
	return nil
}

// Close is a no-op when cgo is disabled.
func (s *Speaker) Close() error {
	return nil
}
