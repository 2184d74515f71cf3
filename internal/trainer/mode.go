package trainer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode indicates a mode name outside the supported set
var ErrUnknownMode = errors.New("unknown training mode")

// Mode selects how units are chosen, scored and finished.
type Mode string

const (
	ModeNormal     Mode = "normal"
	ModeWords      Mode = "words"
	ModeChallenge  Mode = "challenge"
	ModeWeakSpots  Mode = "weak_spots"
	ModeSpeedTest  Mode = "speed_test"
	ModeTimeAttack Mode = "time_attack"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeNormal, ModeWords, ModeChallenge, ModeWeakSpots, ModeSpeedTest, ModeTimeAttack}

// ParseMode accepts mode names case-insensitively, with '-' or '_' separators.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Title is the human-readable mode name.
func (m Mode) Title() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeWords:
		return "Words"
	case ModeChallenge:
		return "Challenge"
	case ModeWeakSpots:
		return "Weak spots"
	case ModeSpeedTest:
		return "Speed test"
	case ModeTimeAttack:
		return "Time attack"
	default:
		return string(m)
	}
}

// Next returns the mode after m in Modes, wrapping around. step may be negative.
func (m Mode) Next(step int) Mode {
	idx := 0
	for i, known := range Modes {
		if known == m {
			idx = i
			break
		}
	}
	n := len(Modes)
	return Modes[((idx+step)%n+n)%n]
}
