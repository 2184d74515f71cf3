package trainer

import "time"

// Achievement summarises one finished session for the results log.
type Achievement struct {
	RunID            string
	Mode             Mode
	Score            int
	WPM              float64
	Accuracy         float64
	Elapsed          time.Duration
	SymbolsCompleted int
	Correct          int
	Incorrect        int
	CreatedAt        time.Time
}

// Achievement builds the record for the most recent run. It returns false
// while the session is still running or when nothing was answered.
func (s *Session) Achievement() (Achievement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.startedAt.IsZero() || s.correct+s.incorrect == 0 {
		return Achievement{}, false
	}

	a := Achievement{
		RunID:     s.runID,
		Mode:      s.mode,
		Accuracy:  Accuracy(s.correct, s.incorrect),
		Correct:   s.correct,
		Incorrect: s.incorrect,
		CreatedAt: s.endedAt,
	}
	if !s.training {
		a.Mode = ModeNormal
	}

	switch a.Mode {
	case ModeSpeedTest:
		elapsed := s.testElapsed()
		a.Score = s.completed
		a.WPM = WPM(s.completed, elapsed)
		a.Elapsed = elapsed
		a.SymbolsCompleted = s.completed
	case ModeTimeAttack:
		a.Score = s.correct
		a.Elapsed = s.duration
		a.SymbolsCompleted = s.correct + s.incorrect
	default:
		a.Score = s.correct
		a.Elapsed = s.endedAt.Sub(s.startedAt)
		a.SymbolsCompleted = s.correct + s.incorrect
	}
	return a, true
}
