package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

type fakeRunner struct {
	starts   int
	stops    int
	startErr error
}

func (r *fakeRunner) Start(context.Context) error {
	r.starts++
	return r.startErr
}

func (r *fakeRunner) Stop() {
	r.stops++
}

func newTestModel(t *testing.T, selection []string, modify ...func(*trainer.Options)) (*Model, *trainer.Session, *fakeRunner) {
	t.Helper()
	opts := trainer.DefaultOptions()
	opts.Rand = rand.New(rand.NewPCG(3, 5))
	opts.Words = []string{"ДОМ"}
	for _, fn := range modify {
		fn(&opts)
	}
	s, err := trainer.New(opts)
	if err != nil {
		t.Fatalf("trainer.New() error = %v", err)
	}
	r := &fakeRunner{}
	return New(s, r, Options{Selection: selection}), s, r
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_StartRequiresSelection(t *testing.T) {
	m, s, r := newTestModel(t, nil)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if !errors.Is(m.err, trainer.ErrEmptySelection) {
		t.Errorf("err = %v, want %v", m.err, trainer.ErrEmptySelection)
	}
	if r.starts != 0 || s.Running() {
		t.Error("runner started without a selection")
	}
	if !strings.Contains(m.View(), "Select at least one symbol!") {
		t.Error("view does not show the empty selection status")
	}
}

func TestModel_ToggleStartStop(t *testing.T) {
	m, s, r := newTestModel(t, []string{"А", "Б"})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !s.Running() || r.starts != 1 {
		t.Fatalf("after ctrl+s running = %v, starts = %d", s.Running(), r.starts)
	}

	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if s.Running() {
		t.Error("session still running after second ctrl+s")
	}
	if cmd == nil {
		t.Fatal("stop should return a command that waits for the worker")
	}
	if _, ok := cmd().(RefreshMsg); !ok {
		t.Error("stop command should report a refresh")
	}
	if r.stops != 1 {
		t.Errorf("runner stops = %d, want 1", r.stops)
	}
}

func TestModel_RunnerStartFailure(t *testing.T) {
	m, s, r := newTestModel(t, []string{"А"})
	r.startErr = errors.New("device busy")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if s.Running() {
		t.Error("session left running after runner failed")
	}
	if m.err == nil || !strings.Contains(m.View(), "device busy") {
		t.Errorf("err = %v, want runner error shown", m.err)
	}
}

func TestModel_SpeedAndTone(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"})

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	if s.Speed() != 1.0 {
		t.Errorf("speed below minimum: %v", s.Speed())
	}
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	if s.Speed() != 1.2 {
		t.Errorf("speed = %v, want 1.2", s.Speed())
	}

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	if s.Frequency() != 850 {
		t.Errorf("frequency = %d, want 850", s.Frequency())
	}
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if s.Frequency() != 750 {
		t.Errorf("frequency = %d, want 750", s.Frequency())
	}
	for i := 0; i < 20; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if s.Frequency() != trainer.MinFrequency {
		t.Errorf("frequency = %d, want clamp at %d", s.Frequency(), trainer.MinFrequency)
	}
	if !strings.Contains(m.View(), "400 Hz") {
		t.Error("view does not show the tone")
	}
}

func TestModel_ModeAndTraining(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"})

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if s.Mode() != trainer.ModeWords {
		t.Errorf("mode after tab = %s, want words", s.Mode())
	}
	if !m.input.Focused() {
		t.Error("word input should be focused in words mode")
	}
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if s.Mode() != trainer.ModeTimeAttack {
		t.Errorf("mode after shift+tab twice = %s, want time_attack", s.Mode())
	}

	press(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if s.Training() {
		t.Error("ctrl+t did not switch training off")
	}
	if !strings.Contains(m.View(), "Training: off") {
		t.Error("view does not show training off")
	}
}

func TestModel_ModeLockedWhileRunning(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	if s.Mode() != trainer.ModeNormal {
		t.Errorf("mode changed while running: %s", s.Mode())
	}
	if !errors.Is(m.err, trainer.ErrRunning) {
		t.Errorf("err = %v, want %v", m.err, trainer.ErrRunning)
	}
}

func TestModel_KeyAnswer(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	s.Next()
	s.Arm()

	press(m, runes("А"))
	if snap := s.Snapshot(); snap.Correct+snap.Incorrect != 0 {
		t.Error("shifted key should be ignored")
	}

	press(m, runes("а"))
	if snap := s.Snapshot(); snap.Correct != 1 {
		t.Errorf("correct = %d, want 1", snap.Correct)
	}
	if !strings.Contains(m.View(), "✓") {
		t.Error("view does not mark the correct answer")
	}

	s.Next()
	s.Arm()
	press(m, runes("ж"))
	if snap := s.Snapshot(); snap.Incorrect != 1 {
		t.Errorf("incorrect = %d, want 1", snap.Incorrect)
	}
	if !strings.Contains(m.View(), "✗") {
		t.Error("view does not mark the wrong answer")
	}
}

func TestModel_ShiftedPunctuationIgnored(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"Ж"}, func(o *trainer.Options) {
		o.Mode = trainer.ModeChallenge
	})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	s.Next()
	s.Arm()
	before := s.Snapshot()

	for _, k := range []string{":", "!", "<", "\"", "{", "?", "~"} {
		press(m, runes(k))
		snap := s.Snapshot()
		if snap.Correct != 0 || snap.Incorrect != 0 {
			t.Fatalf("%q scored: correct = %d, incorrect = %d", k, snap.Correct, snap.Incorrect)
		}
		if snap.Level != before.Level || snap.Speed != before.Speed {
			t.Errorf("%q changed challenge state: level %d -> %d", k, before.Level, snap.Level)
		}
	}

	// ; is the Ж key and still answers once the shifted presses are dropped.
	press(m, runes(";"))
	if snap := s.Snapshot(); snap.Correct != 1 {
		t.Errorf("correct = %d, want 1", snap.Correct)
	}
}

func TestShifted(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{'a', false},
		{'A', true},
		{'ж', false},
		{'Ж', true},
		{';', false},
		{':', true},
		{'7', false},
		{'&', true},
		{'/', false},
		{'?', true},
	}
	for _, tt := range tests {
		if got := shifted(tt.r); got != tt.want {
			t.Errorf("shifted(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestModel_WordAnswer(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"}, func(o *trainer.Options) {
		o.Mode = trainer.ModeWords
	})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if u := s.Next(); u.Word != "ДОМ" {
		t.Fatalf("Next() = %+v, want ДОМ", u)
	}
	s.Arm()

	press(m, runes("дом"))
	if m.input.Value() != "дом" {
		t.Fatalf("input = %q, want дом", m.input.Value())
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if snap := s.Snapshot(); snap.Correct != 1 {
		t.Errorf("correct = %d, want 1", snap.Correct)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared after a scored answer: %q", m.input.Value())
	}
}

func TestModel_QuitStopsRun(t *testing.T) {
	m, s, _ := newTestModel(t, []string{"А"})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	if cmd := press(m, tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Fatal("esc should return a quit command")
	}
	if s.Running() {
		t.Error("quit left the session running")
	}
}

func TestModel_FinishedAndBest(t *testing.T) {
	calls := 0
	opts := trainer.DefaultOptions()
	s, err := trainer.New(opts)
	if err != nil {
		t.Fatalf("trainer.New() error = %v", err)
	}
	m := New(s, &fakeRunner{}, Options{
		Selection: []string{"А"},
		User:      "alice",
		Debug:     true,
		Best: func(mode trainer.Mode) string {
			calls++
			return fmt.Sprintf("%s score 7", mode)
		},
	})

	m.Update(FinishedMsg{
		Achievement: trainer.Achievement{Mode: trainer.ModeNormal, Score: 7, Accuracy: 87.5},
		OK:          true,
		Saved:       true,
	})
	m.Update(AssetMsg{Symbol: "А", Ref: "data:audio/wav;base64," + strings.Repeat("A", 200)})

	view := m.View()
	for _, want := range []string{"alice", "Normal finished: score 7, accuracy 87.5% (saved)", "normal score 7", "Asset", "…"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if calls != 2 {
		t.Errorf("Best called %d times, want 2 (init and finish)", calls)
	}
}

type fakeSender struct {
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.msgs = append(f.msgs, msg)
}

func TestSurface(t *testing.T) {
	sender := &fakeSender{}
	surface := Surface(sender)

	if err := surface.Present(&synth.Asset{Symbol: "Б", Ref: "/tmp/b.wav"}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	surface.Update()

	if len(sender.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.msgs))
	}
	if got, ok := sender.msgs[0].(AssetMsg); !ok || got.Symbol != "Б" || got.Ref != "/tmp/b.wav" {
		t.Errorf("first message = %#v", sender.msgs[0])
	}
	if _, ok := sender.msgs[1].(RefreshMsg); !ok {
		t.Errorf("second message = %#v, want RefreshMsg", sender.msgs[1])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("абв", 5); got != "абв" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("абвгд", 3); got != "аб…" {
		t.Errorf("truncate(long) = %q, want аб…", got)
	}
}
