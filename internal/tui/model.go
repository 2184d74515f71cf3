// Package tui provides the Bubble Tea training interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

// FrequencyStep is the tone change per left/right key press, in Hz
const FrequencyStep = 50

// maxRefLen bounds the asset reference shown in debug mode.
const maxRefLen = 64

// Runner starts and stops the playback worker. *driver.Driver satisfies it.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
}

// Options configures the model.
type Options struct {
	Selection []string
	// User is shown in the header when results are being recorded
	User string
	// Best describes the best stored result for a mode; nil hides the line
	Best  func(trainer.Mode) string
	Debug bool
	// Context bounds every playback run; defaults to context.Background
	Context context.Context
}

// Model implements the Bubble Tea training UI.
type Model struct {
	session *trainer.Session
	runner  Runner
	opts    Options
	keys    keyMap
	help    help.Model
	input   textinput.Model

	width   int
	outcome trainer.Outcome
	err     error
	notice  string
	asset   AssetMsg
	best    string
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// New constructs a training TUI for session. runner is started after the
// session on ctrl+s.
func New(session *trainer.Session, runner Runner, opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	input := textinput.New()
	input.Placeholder = "type the word, then enter"
	input.CharLimit = 32
	input.Width = 32

	m := &Model{
		session: session,
		runner:  runner,
		opts:    opts,
		keys:    defaultKeys(),
		help:    help.New(),
		input:   input,
	}
	m.syncInput()
	m.refreshBest()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case RefreshMsg:
		m.syncInput()
		return m, nil
	case AssetMsg:
		m.asset = msg
		return m, nil
	case FinishedMsg:
		m.finished(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Sequence(m.stop(), tea.Quit)
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()
	case key.Matches(msg, m.keys.Training):
		m.apply(m.session.SetTraining(!m.session.Training()))
	case key.Matches(msg, m.keys.NextMode):
		m.changeMode(1)
	case key.Matches(msg, m.keys.PrevMode):
		m.changeMode(-1)
	case key.Matches(msg, m.keys.Faster):
		m.apply(m.session.SetSpeed(cw.ClampSpeed(m.session.Speed() + cw.SpeedStep)))
	case key.Matches(msg, m.keys.Slower):
		m.apply(m.session.SetSpeed(cw.ClampSpeed(m.session.Speed() - cw.SpeedStep)))
	case key.Matches(msg, m.keys.ToneUp):
		m.apply(m.session.SetFrequency(min(m.session.Frequency()+FrequencyStep, trainer.MaxFrequency)))
	case key.Matches(msg, m.keys.ToneDown):
		m.apply(m.session.SetFrequency(max(m.session.Frequency()-FrequencyStep, trainer.MinFrequency)))
	case m.wordEntry():
		return m.handleWordKey(msg)
	case msg.Type == tea.KeyRunes:
		for _, r := range msg.Runes {
			m.record(m.session.AnswerKey(trainer.KeyPress{Key: string(r), Shift: shifted(r)}))
		}
	}
	return m, nil
}

func (m *Model) handleWordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		if outcome := m.session.AnswerWord(m.input.Value()); outcome != trainer.Ignored {
			m.record(outcome)
			m.input.Reset()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggle starts a run or stops the current one. Stopping waits for the
// worker off the event loop, since the worker reports back through it.
func (m *Model) toggle() tea.Cmd {
	if m.session.Running() {
		return m.stop()
	}
	m.err = nil
	m.notice = ""
	m.outcome = trainer.Ignored
	if err := m.session.Start(m.opts.Selection); err != nil {
		m.err = err
		return nil
	}
	if err := m.runner.Start(m.opts.Context); err != nil {
		m.session.Stop()
		m.err = err
		return nil
	}
	m.syncInput()
	return nil
}

func (m *Model) stop() tea.Cmd {
	if !m.session.Stop() {
		return nil
	}
	runner := m.runner
	return func() tea.Msg {
		runner.Stop()
		return RefreshMsg{}
	}
}

func (m *Model) changeMode(step int) {
	if err := m.session.SetMode(m.session.Mode().Next(step)); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.syncInput()
	m.refreshBest()
}

func (m *Model) apply(err error) {
	m.err = err
	m.syncInput()
}

func (m *Model) record(o trainer.Outcome) {
	if o != trainer.Ignored {
		m.outcome = o
	}
}

func (m *Model) finished(msg FinishedMsg) {
	m.syncInput()
	if !msg.OK {
		return
	}
	a := msg.Achievement
	m.notice = fmt.Sprintf("%s finished: score %d, accuracy %.1f%%", a.Mode.Title(), a.Score, a.Accuracy)
	if msg.Saved {
		m.notice += " (saved)"
	}
	m.refreshBest()
}

func (m *Model) refreshBest() {
	if m.opts.Best == nil {
		return
	}
	m.best = m.opts.Best(m.session.Mode())
}

// wordEntry reports whether typed text goes to the word input.
func (m *Model) wordEntry() bool {
	return m.session.Mode() == trainer.ModeWords && m.session.Training()
}

func (m *Model) syncInput() {
	if m.wordEntry() {
		m.input.Focus()
		return
	}
	m.input.Blur()
	m.input.Reset()
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.session.Snapshot()

	var b strings.Builder
	header := titleStyle.Render("CW Trainer")
	if m.opts.User != "" {
		header += labelStyle.Render("  user ") + valueStyle.Render(m.opts.User)
	}
	b.WriteString(header + "\n\n")

	training := "off"
	if snap.Training {
		training = "on"
	}
	b.WriteString(field("Mode", snap.Mode.Title()) + "  " +
		field("Training", training) + "  " +
		field("Speed", fmt.Sprintf("%.1fx", snap.Speed)) + "  " +
		field("Tone", fmt.Sprintf("%d Hz", snap.Frequency)) + "\n")
	b.WriteString(field("Selection", selectionLabel(m.opts.Selection)) + "\n\n")

	b.WriteString(statusStyle.Render(snap.Status) + "\n")
	b.WriteString(valueStyle.Render(snap.Stats))
	switch m.outcome {
	case trainer.Correct:
		b.WriteString("  " + correctStyle.Render("✓"))
	case trainer.Incorrect:
		b.WriteString("  " + incorrectStyle.Render("✗"))
	}
	b.WriteString("\n")

	if m.wordEntry() {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.best != "" {
		b.WriteString("\n" + field("Best", m.best) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + valueStyle.Render(m.notice) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + incorrectStyle.Render(m.err.Error()) + "\n")
	}
	if m.opts.Debug && m.asset.Ref != "" {
		b.WriteString("\n" + field("Asset", m.asset.Symbol+" "+truncate(m.asset.Ref, maxRefLen)) + "\n")
	}

	body := boxStyle.Render(b.String())
	return body + "\n" + footerStyle.Render(m.help.View(m.keys)) + "\n"
}

func field(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

func selectionLabel(sel []string) string {
	if len(sel) == 0 {
		return "(none)"
	}
	return strings.Join(sel, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
