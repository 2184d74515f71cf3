package trainer

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Snapshot is a consistent copy of the session's observable state.
type Snapshot struct {
	Mode      Mode
	Training  bool
	Running   bool
	Speed     float64
	Frequency int
	Selection []string
	Pending   Unit
	Correct   int
	Incorrect int
	Accuracy  float64
	LastMiss  string

	Level  int
	Streak int

	Target    int
	Completed int
	WPM       float64

	Duration  time.Duration
	Remaining time.Duration

	Status string
	Stats  string
}

// Snapshot copies the current state under the session lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Mode:      s.mode,
		Training:  s.training,
		Running:   s.running,
		Speed:     s.speed,
		Frequency: s.frequency,
		Selection: slices.Clone(s.selection),
		Pending:   s.pending,
		Correct:   s.correct,
		Incorrect: s.incorrect,
		Accuracy:  Accuracy(s.correct, s.incorrect),
		LastMiss:  s.lastMiss,
		Level:     s.level,
		Streak:    s.streak,
		Target:    s.target,
		Completed: s.completed,
		WPM:       s.currentWPM(),
		Duration:  s.duration,
		Remaining: s.remaining,
		Status:    s.status,
		Stats:     s.statsLine(),
	}
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Training() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.training
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *Session) Frequency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

func (s *Session) Pending() Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Tallies returns a copy of the per-symbol answer counts.
func (s *Session) Tallies() map[string]Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.tallies)
}

// StatusLine is the short progress message shown above the stats.
func (s *Session) StatusLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StatsLine renders the running statistics in the format of the active mode.
func (s *Session) StatsLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLine()
}

func (s *Session) statsLine() string {
	var line string
	switch s.mode {
	case ModeChallenge:
		line = fmt.Sprintf("Level: %d | Correct: %d | Errors: %d", s.level, s.correct, s.incorrect)
	case ModeWords:
		line = fmt.Sprintf("Words: Correct: %d | Errors: %d", s.correct, s.incorrect)
	case ModeSpeedTest:
		if s.testStart.IsZero() {
			line = fmt.Sprintf("Speed: %d/%d | Correct: %d | Errors: %d", s.completed, s.target, s.correct, s.incorrect)
		} else {
			line = fmt.Sprintf("Speed: %d/%d | WPM: %.1f | Time: %.1fs",
				s.completed, s.target, s.currentWPM(), s.testElapsed().Seconds())
		}
	case ModeTimeAttack:
		switch {
		case s.timerActive && s.remaining > 0:
			line = fmt.Sprintf("Timer: %ds | Correct: %d | Errors: %d", int(s.remaining.Seconds()), s.correct, s.incorrect)
		case s.attackStart.IsZero():
			line = fmt.Sprintf("Timer: %ds | Correct: %d | Errors: %d", int(s.duration.Seconds()), s.correct, s.incorrect)
		default:
			line = fmt.Sprintf("Timer: finished | Correct: %d | Accuracy: %.1f%%", s.correct, Accuracy(s.correct, s.incorrect))
		}
	default:
		line = fmt.Sprintf("Stats: Correct: %d | Errors: %d", s.correct, s.incorrect)
	}
	if s.lastMiss != "" {
		line += " | Was: " + s.lastMiss
	}
	return line
}

func (s *Session) testElapsed() time.Duration {
	if s.testStart.IsZero() {
		return 0
	}
	end := s.endedAt
	if s.running || end.IsZero() {
		end = s.now()
	}
	return end.Sub(s.testStart)
}

func (s *Session) currentWPM() float64 {
	if s.mode != ModeSpeedTest {
		return 0
	}
	return WPM(s.completed, s.testElapsed())
}
