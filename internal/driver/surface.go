package driver

import (
	"errors"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

// Discard is a Surface that drops every asset.
var Discard Surface = discard{}

type discard struct{}

func (discard) Present(*synth.Asset) error { return nil }
func (discard) Update()                    {}

// Player starts playback of an asset without waiting for it to finish.
type Player interface {
	Play(asset *synth.Asset) error
}

// PlayerSurface adapts a Player to a Surface. update may be nil.
func PlayerSurface(p Player, update func()) Surface {
	return playerSurface{player: p, update: update}
}

type playerSurface struct {
	player Player
	update func()
}

func (s playerSurface) Present(asset *synth.Asset) error {
	return s.player.Play(asset)
}

func (s playerSurface) Update() {
	if s.update != nil {
		s.update()
	}
}

// Fanout presents every asset on all surfaces and joins their errors.
func Fanout(surfaces ...Surface) Surface {
	return fanout(surfaces)
}

type fanout []Surface

func (f fanout) Present(asset *synth.Asset) error {
	var errs []error
	for _, s := range f {
		if err := s.Present(asset); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Update() {
	for _, s := range f {
		s.Update()
	}
}
