// internal/trainer/session.go
// Package trainer implements the training session state machine: modes,
// scoring, difficulty adaptation and the input-ready signal shared with the
// playback worker.
package trainer

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

const (
	// ChallengeThreshold is the streak of correct answers that raises the challenge level
	ChallengeThreshold = 5
	// DefaultSpeedTestTarget is the symbol count a speed test runs to
	DefaultSpeedTestTarget = 20
	// DefaultTimeAttack is the length of a time attack round
	DefaultTimeAttack = 60 * time.Second
	// DefaultFrequency is the initial tone frequency in Hz
	DefaultFrequency = 800
	MinFrequency     = 400
	MaxFrequency     = 1200
)

var (
	// ErrEmptySelection indicates training was started without any symbols
	ErrEmptySelection = errors.New("select at least one symbol")
	// ErrRunning indicates the change is not allowed while a session runs
	ErrRunning = errors.New("session is running")
	// ErrSpeedLocked indicates challenge mode owns the speed
	ErrSpeedLocked = errors.New("speed is controlled by challenge mode")
	// ErrInvalidSpeed indicates speed must be between 1.0 and 2.0
	ErrInvalidSpeed = errors.New("speed must be between 1.0 and 2.0")
	// ErrInvalidFrequency indicates frequency must be between 400 and 1200 Hz
	ErrInvalidFrequency = errors.New("frequency must be between 400 and 1200 Hz")
	// ErrInvalidTarget indicates the speed test target must be positive
	ErrInvalidTarget = errors.New("speed test target must be positive")
	// ErrInvalidDuration indicates the time attack duration must be positive
	ErrInvalidDuration = errors.New("time attack duration must be positive")
)

// Options configures a new Session.
type Options struct {
	Mode      Mode
	Training  bool
	Speed     float64
	Frequency int
	// SpeedTestTarget is the number of correct symbols that ends a speed test (from config: speed_test_target)
	SpeedTestTarget int
	// TimeAttack is the round length (from config: time_attack_seconds)
	TimeAttack time.Duration
	// Words is the words-mode vocabulary; defaults to cw.Words()
	Words []string
	// Translate maps a pressed key to the symbol printed on the same key
	Translate func(rune) (rune, bool)
	Rand      *rand.Rand
	Now       func() time.Time
}

// DefaultOptions returns a normal-mode training session at base speed.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeNormal,
		Training:        true,
		Speed:           cw.MinSpeed,
		Frequency:       DefaultFrequency,
		SpeedTestTarget: DefaultSpeedTestTarget,
		TimeAttack:      DefaultTimeAttack,
	}
}

// Outcome is the result of an answer transition.
type Outcome int

const (
	// Ignored means the input was not scored
	Ignored Outcome = iota
	Correct
	Incorrect
)

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "ignored"
	}
}

// KeyPress is a single key event from the training surface.
type KeyPress struct {
	Key   string
	Shift bool
}

// Unit is what the playback worker presents next: a symbol or a word, never both.
type Unit struct {
	Symbol string
	Word   string
}

// IsWord reports whether the unit is a words-mode word.
func (u Unit) IsWord() bool {
	return u.Word != ""
}

// Empty reports whether nothing is pending.
func (u Unit) Empty() bool {
	return u.Symbol == "" && u.Word == ""
}

// Session is the live training context. The playback worker drives it through
// Next, Arm and WaitAnswer; the input handler only calls AnswerKey and AnswerWord.
type Session struct {
	mu        sync.Mutex
	signal    *Signal
	rng       *rand.Rand
	now       func() time.Time
	words     []string
	translate func(rune) (rune, bool)

	mode      Mode
	training  bool
	running   bool
	runID     string
	selection []string
	speed     float64
	frequency int
	status    string
	startedAt time.Time
	endedAt   time.Time

	correct    int
	incorrect  int
	tallies    map[string]Tally
	tallyOrder []string
	pending    Unit
	lastMiss   string

	// challenge
	streak int
	level  int

	// speed_test
	target    int
	completed int
	testStart time.Time
	wpm       float64

	// time_attack
	duration    time.Duration
	attackStart time.Time
	remaining   time.Duration
	timerActive bool
}

// New validates opts and returns an idle session.
func New(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = ModeNormal
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Speed == 0 {
		opts.Speed = cw.MinSpeed
	}
	if !cw.ValidSpeed(opts.Speed) {
		return nil, ErrInvalidSpeed
	}
	if opts.Frequency == 0 {
		opts.Frequency = DefaultFrequency
	}
	if opts.Frequency < MinFrequency || opts.Frequency > MaxFrequency {
		return nil, ErrInvalidFrequency
	}
	if opts.SpeedTestTarget == 0 {
		opts.SpeedTestTarget = DefaultSpeedTestTarget
	}
	if opts.SpeedTestTarget < 0 {
		return nil, ErrInvalidTarget
	}
	if opts.TimeAttack == 0 {
		opts.TimeAttack = DefaultTimeAttack
	}
	if opts.TimeAttack < 0 {
		return nil, ErrInvalidDuration
	}
	if opts.Words == nil {
		opts.Words = cw.Words()
	}
	if opts.Translate == nil {
		opts.Translate = cw.TranslateKey
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		signal:    NewSignal(),
		rng:       opts.Rand,
		now:       opts.Now,
		words:     slices.Clone(opts.Words),
		translate: opts.Translate,
		mode:      opts.Mode,
		training:  opts.Training,
		speed:     cw.ClampSpeed(opts.Speed),
		frequency: opts.Frequency,
		target:    opts.SpeedTestTarget,
		duration:  opts.TimeAttack,
		remaining: opts.TimeAttack,
		tallies:   map[string]Tally{},
		level:     1,
		status:    "Ready",
	}
	if s.mode == ModeChallenge && s.training {
		s.speed = cw.MinSpeed
	}
	return s, nil
}

// SetTraining switches answer checking on or off. Switching it on clears
// counters, challenge progress and per-symbol tallies.
func (s *Session) SetTraining(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.training = on
	if on {
		s.resetCounters()
		s.tallies = map[string]Tally{}
		s.tallyOrder = nil
		if s.mode == ModeChallenge {
			s.speed = cw.MinSpeed
		}
	}
	return nil
}

// SetMode changes the training mode, clearing counters and mode sub-state.
// Per-symbol tallies survive mode switches.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.mode = m
	s.resetCounters()
	switch m {
	case ModeChallenge:
		s.speed = cw.MinSpeed
	case ModeSpeedTest:
		s.completed = 0
		s.testStart = time.Time{}
		s.wpm = 0
	case ModeTimeAttack:
		s.remaining = s.duration
		s.attackStart = time.Time{}
		s.timerActive = false
	}
	return nil
}

// SetSpeed sets the speed multiplier, snapped to the 0.1 grid.
func (s *Session) SetSpeed(v float64) error {
	if !cw.ValidSpeed(v) {
		return ErrInvalidSpeed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.training && s.mode == ModeChallenge {
		return ErrSpeedLocked
	}
	s.speed = cw.ClampSpeed(v)
	return nil
}

// SetFrequency sets the tone frequency in Hz.
func (s *Session) SetFrequency(hz int) error {
	if hz < MinFrequency || hz > MaxFrequency {
		return ErrInvalidFrequency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = hz
	return nil
}

// SetSpeedTestTarget changes the speed test length.
func (s *Session) SetSpeedTestTarget(n int) error {
	if n <= 0 {
		return ErrInvalidTarget
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.target = n
	return nil
}

// SetTimeAttack changes the time attack round length.
func (s *Session) SetTimeAttack(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidDuration
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.duration = d
	s.remaining = d
	return nil
}

// Start begins a run over selection. An empty selection is rejected and
// reported through the status line.
func (s *Session) Start(selection []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	if len(selection) == 0 {
		s.status = "Select at least one symbol!"
		return ErrEmptySelection
	}

	now := s.now()
	s.selection = slices.Clone(selection)
	s.running = true
	s.runID = uuid.NewString()
	s.startedAt = now
	s.endedAt = time.Time{}
	s.pending = Unit{}
	s.resetCounters()

	if s.training {
		switch s.mode {
		case ModeChallenge:
			s.speed = cw.MinSpeed
		case ModeSpeedTest:
			s.completed = 0
			s.wpm = 0
			s.testStart = now
		case ModeTimeAttack:
			s.attackStart = now
			s.remaining = s.duration
			s.timerActive = true
		}
	}

	// Nothing is pending until the worker arms the signal.
	s.signal.Release()
	s.status = fmt.Sprintf("Playing (%d symbols)...", len(selection))
	return nil
}

// Stop ends the run and wakes a waiting worker. It reports whether the
// session was running.
func (s *Session) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.stopLocked()
	return true
}

func (s *Session) stopLocked() {
	now := s.now()
	s.running = false
	s.endedAt = now
	s.timerActive = false
	s.pending = Unit{}

	switch {
	case s.training && s.mode == ModeSpeedTest && !s.testStart.IsZero():
		elapsed := now.Sub(s.testStart)
		if elapsed > 0 {
			s.wpm = WPM(s.completed, elapsed)
			s.status = fmt.Sprintf("Test finished! WPM: %.1f | Accuracy: %.1f%% | Time: %.1fs",
				s.wpm, Accuracy(s.correct, s.incorrect), elapsed.Seconds())
		} else {
			s.status = "Playback stopped"
		}
	case s.training && s.mode == ModeTimeAttack:
		s.status = fmt.Sprintf("Time is up! Correct: %d | Accuracy: %.1f%%",
			s.correct, Accuracy(s.correct, s.incorrect))
	default:
		s.status = "Playback stopped"
	}
	s.signal.Release()
}

// CheckCompletion evaluates the mode stop conditions and stops the session
// when one is met. It reports whether the session is no longer running.
func (s *Session) CheckCompletion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return true
	}
	if !s.training {
		return false
	}
	switch s.mode {
	case ModeSpeedTest:
		if s.completed >= s.target {
			s.stopLocked()
			return true
		}
	case ModeTimeAttack:
		s.updateRemaining()
		if s.remaining <= 0 {
			s.stopLocked()
			return true
		}
	}
	return false
}

// Tick refreshes the time attack countdown and stops the session when it
// reaches zero. It reports whether the countdown is still active.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.timerActive {
		return false
	}
	s.updateRemaining()
	if s.remaining <= 0 {
		s.stopLocked()
		return false
	}
	return true
}

func (s *Session) updateRemaining() {
	if s.attackStart.IsZero() {
		return
	}
	s.remaining = max(0, s.duration-s.now().Sub(s.attackStart))
}

// Next chooses the next unit and marks it pending. It returns an empty unit
// when the session is not running.
func (s *Session) Next() Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || len(s.selection) == 0 {
		return Unit{}
	}

	if s.training && s.mode == ModeWords && len(s.words) > 0 {
		s.pending = Unit{Word: s.words[s.rng.IntN(len(s.words))]}
		return s.pending
	}

	pool := s.selection
	if s.training && s.mode == ModeWeakSpots {
		pool = WeakPool(s.tallies, s.tallyOrder, s.selection)
	}
	s.pending = Unit{Symbol: pool[s.rng.IntN(len(pool))]}
	return s.pending
}

// Skip drops the pending unit without scoring it.
func (s *Session) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = Unit{}
}

// Arm resets the input-ready signal before the worker presents the pending
// unit. It reports false when the session has stopped, in which case the
// worker must not wait.
func (s *Session) Arm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.signal.Reset()
	return true
}

// Answered returns a channel closed once the pending unit has been answered
// or the session stopped.
func (s *Session) Answered() <-chan struct{} {
	return s.signal.Done()
}

// AnswerKey scores a single key press against the pending symbol.
func (s *Session) AnswerKey(k KeyPress) Outcome {
	if k.Shift {
		return Ignored
	}
	key := strings.ToUpper(k.Key)
	if utf8.RuneCountInString(key) != 1 {
		return Ignored
	}
	r, _ := utf8.DecodeRuneInString(key)
	if !unicode.IsPrint(r) {
		return Ignored
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.training || s.mode == ModeWords || s.pending.Symbol == "" {
		return Ignored
	}
	// The release doubles as the per-unit answer guard.
	if !s.signal.Release() {
		return Ignored
	}

	ok := key == s.pending.Symbol
	if !ok {
		if t, found := s.translate(r); found && string(t) == s.pending.Symbol {
			ok = true
		}
	}
	if ok {
		s.scoreCorrect()
		return Correct
	}
	s.scoreIncorrect()
	return Incorrect
}

// AnswerWord scores a submitted word. Case, surrounding space and inner
// spaces are ignored; empty submissions are not scored.
func (s *Session) AnswerWord(text string) Outcome {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(text)), " ", "")
	if norm == "" {
		return Ignored
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.training || s.mode != ModeWords || s.pending.Word == "" {
		return Ignored
	}
	if !s.signal.Release() {
		return Ignored
	}

	if norm == strings.ToUpper(s.pending.Word) {
		s.correct++
		s.lastMiss = ""
		return Correct
	}
	s.incorrect++
	s.lastMiss = s.pending.Word
	return Incorrect
}

func (s *Session) scoreCorrect() {
	s.correct++
	s.lastMiss = ""
	s.tally(s.pending.Symbol, true)

	switch s.mode {
	case ModeSpeedTest:
		s.completed++
	case ModeChallenge:
		s.streak++
		if s.streak >= ChallengeThreshold {
			s.level++
			s.streak = 0
			s.speed = cw.ClampSpeed(min(cw.MinSpeed+float64(s.level-1)*cw.SpeedStep, cw.MaxSpeed))
		}
	}
}

func (s *Session) scoreIncorrect() {
	s.incorrect++
	s.lastMiss = s.pending.Symbol
	s.tally(s.pending.Symbol, false)

	if s.mode == ModeChallenge {
		s.streak = 0
		s.level = 1
		s.speed = cw.MinSpeed
	}
}

func (s *Session) tally(symbol string, correct bool) {
	t, seen := s.tallies[symbol]
	if !seen {
		s.tallyOrder = append(s.tallyOrder, symbol)
	}
	if correct {
		t.Correct++
	} else {
		t.Incorrect++
	}
	s.tallies[symbol] = t
}

func (s *Session) resetCounters() {
	s.correct = 0
	s.incorrect = 0
	s.streak = 0
	s.level = 1
	s.lastMiss = ""
}
