package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ColonelBlimp/cwtrainer/internal/driver"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

// RefreshMsg asks the model to redraw from the session.
type RefreshMsg struct{}

// AssetMsg reports the asset the driver just presented.
type AssetMsg struct {
	Symbol string
	Ref    string
}

// FinishedMsg reports the end of a run.
type FinishedMsg struct {
	Achievement trainer.Achievement
	OK          bool
	Saved       bool
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Surface returns a driver surface that forwards presented assets and state
// changes to the running program.
func Surface(p Sender) driver.Surface {
	return programSurface{p: p}
}

type programSurface struct {
	p Sender
}

func (s programSurface) Present(asset *synth.Asset) error {
	s.p.Send(AssetMsg{Symbol: asset.Symbol, Ref: asset.Ref})
	return nil
}

func (s programSurface) Update() {
	s.p.Send(RefreshMsg{})
}
