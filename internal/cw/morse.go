// internal/cw/morse.go
// Package cw holds the Morse alphabet, keyboard layout and timing model used by the trainer.
package cw

import (
	"errors"
	"fmt"
	"strings"
)

// Morse code timing ratios (ITU standard)
const (
	// DahDitRatio is the ratio of dah duration to dit duration (ITU: 3:1)
	DahDitRatio = 3
	// IntraCharSpaceRatio is the ratio of space between elements within a character to dit (ITU: 1:1)
	IntraCharSpaceRatio = 1
	// InterCharSpaceRatio is the ratio of space between characters to dit (ITU: 3:1)
	InterCharSpaceRatio = 3
)

var (
	// ErrInvalidMark indicates a pattern contains something other than '.' or '-'
	ErrInvalidMark = errors.New("pattern may only contain '.' and '-'")
	// ErrEmptyPattern indicates a pattern has no marks
	ErrEmptyPattern = errors.New("pattern is empty")
	// ErrInvalidSymbol indicates an alphabet key is not exactly one character
	ErrInvalidSymbol = errors.New("symbol must be exactly one character")
)

// Mark is one element of a Morse pattern.
type Mark uint8

const (
	Dit Mark = iota
	Dah
)

func (m Mark) String() string {
	if m == Dah {
		return "-"
	}
	return "."
}

// Units returns the length of the mark in dit units.
func (m Mark) Units() int {
	if m == Dah {
		return DahDitRatio
	}
	return 1
}

// Pattern is an ordered sequence of marks for one symbol.
type Pattern []Mark

// ParsePattern converts dot/dash notation such as ".-.." into a Pattern.
func ParsePattern(code string) (Pattern, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyPattern
	}
	p := make(Pattern, 0, len(code))
	for i, c := range code {
		switch c {
		case '.':
			p = append(p, Dit)
		case '-':
			p = append(p, Dah)
		default:
			return nil, fmt.Errorf("%w: %q at %d", ErrInvalidMark, c, i)
		}
	}
	return p, nil
}

func (p Pattern) String() string {
	var b strings.Builder
	for _, m := range p {
		b.WriteString(m.String())
	}
	return b.String()
}

// Units returns the total length of the pattern in dit units, including intra-character gaps.
func (p Pattern) Units() int {
	if len(p) == 0 {
		return 0
	}
	n := (len(p) - 1) * IntraCharSpaceRatio
	for _, m := range p {
		n += m.Units()
	}
	return n
}
