package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
)

// usShifted holds the characters a US layout produces only with shift held.
const usShifted = "~!@#$%^&*()_+{}|:\"<>?"

// shifted reports whether r came from a shift-held key. The terminal reports
// runes, not modifiers, so this goes by the rune: uppercase letters and the
// shifted US punctuation. Caps Lock cannot be told apart from shift.
func shifted(r rune) bool {
	return unicode.IsUpper(r) || strings.ContainsRune(usShifted, r)
}

type keyMap struct {
	Toggle   key.Binding
	Training key.Binding
	NextMode key.Binding
	PrevMode key.Binding
	Faster   key.Binding
	Slower   key.Binding
	ToneUp   key.Binding
	ToneDown key.Binding
	Submit   key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "start/stop")),
		Training: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "training")),
		NextMode: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next mode")),
		PrevMode: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev mode")),
		Faster:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "faster")),
		Slower:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "slower")),
		ToneUp:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "tone +50Hz")),
		ToneDown: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "tone -50Hz")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit word")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Training, k.NextMode, k.Faster, k.Slower, k.ToneDown, k.ToneUp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Training, k.NextMode, k.PrevMode},
		{k.Faster, k.Slower, k.ToneUp, k.ToneDown},
		{k.Submit, k.Quit},
	}
}
