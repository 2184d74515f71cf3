package cw

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

//go:embed alphabet.json
var defaultAlphabet []byte

// ErrUnsupportedFormat indicates an alphabet file extension that is neither JSON nor TOML
var ErrUnsupportedFormat = errors.New("alphabet file must be .json or .toml")

// Entry is one row of the alphabet table.
type Entry struct {
	Symbol   string
	Pattern  Pattern
	Mnemonic string
}

// entryFile is the on-disk shape shared by JSON and TOML definitions.
type entryFile struct {
	Code     string `json:"code" toml:"code"`
	Mnemonic string `json:"mnemonic" toml:"mnemonic"`
}

// Alphabet maps symbols to their Morse patterns. It is immutable once built.
type Alphabet struct {
	entries map[string]Entry
	order   []string
}

// NewAlphabet builds an alphabet from entries. Duplicate symbols keep the last entry.
func NewAlphabet(entries []Entry) *Alphabet {
	a := &Alphabet{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		a.entries[e.Symbol] = e
	}
	for sym := range a.entries {
		a.order = append(a.order, sym)
	}
	slices.Sort(a.order)
	return a
}

// Default returns the built-in alphabet: digits and the 30-letter Cyrillic set.
func Default() *Alphabet {
	a, err := Parse(defaultAlphabet, ".json")
	if err != nil {
		panic(fmt.Sprintf("embedded alphabet: %v", err))
	}
	return a
}

// Load reads an alphabet definition from path. An empty path yields Default().
func Load(path string) (*Alphabet, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alphabet: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// LoadOrEmpty behaves like Load but degrades to an empty alphabet on failure.
// Every lookup then falls back to the unknown-symbol placeholder.
func LoadOrEmpty(path string, logger *slog.Logger) *Alphabet {
	a, err := Load(path)
	if err != nil {
		logger.Warn("alphabet unavailable, continuing with an empty table", "path", path, "err", err)
		return NewAlphabet(nil)
	}
	logger.Debug("alphabet loaded", "path", path, "symbols", a.Len())
	return a
}

// Parse decodes alphabet definitions. ext selects the format (".json" or ".toml").
func Parse(data []byte, ext string) (*Alphabet, error) {
	raw := map[string]entryFile{}
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse alphabet json: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parse alphabet toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var errs []error
	entries := make([]Entry, 0, len(raw))
	for sym, ef := range raw {
		key := strings.ToUpper(strings.TrimSpace(sym))
		if utf8.RuneCountInString(key) != 1 {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidSymbol, sym))
			continue
		}
		p, err := ParsePattern(ef.Code)
		if err != nil {
			errs = append(errs, fmt.Errorf("symbol %s: %w", key, err))
			continue
		}
		entries = append(entries, Entry{Symbol: key, Pattern: p, Mnemonic: ef.Mnemonic})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewAlphabet(entries), nil
}

// Lookup returns the entry for symbol.
func (a *Alphabet) Lookup(symbol string) (Entry, bool) {
	e, ok := a.entries[symbol]
	return e, ok
}

// Has reports whether symbol is part of the alphabet.
func (a *Alphabet) Has(symbol string) bool {
	_, ok := a.entries[symbol]
	return ok
}

// Plan returns the timing plan of symbol at speed s. Unknown symbols give the fallback plan.
func (a *Alphabet) Plan(symbol string, s float64) Plan {
	e, ok := a.entries[symbol]
	if !ok {
		return NewPlan(nil, s)
	}
	return NewPlan(e.Pattern, s)
}

// Len returns the number of symbols.
func (a *Alphabet) Len() int {
	return len(a.order)
}

// Symbols returns every symbol, digits first.
func (a *Alphabet) Symbols() []string {
	return slices.Clone(a.order)
}

// Entries returns every entry in symbol order.
func (a *Alphabet) Entries() []Entry {
	out := make([]Entry, 0, len(a.order))
	for _, sym := range a.order {
		out = append(out, a.entries[sym])
	}
	return out
}

// Digits returns the numeric symbols.
func (a *Alphabet) Digits() []string {
	return a.filter(unicode.IsDigit)
}

// Letters returns the alphabetic symbols.
func (a *Alphabet) Letters() []string {
	return a.filter(unicode.IsLetter)
}

func (a *Alphabet) filter(keep func(rune) bool) []string {
	var out []string
	for _, sym := range a.order {
		r, _ := utf8.DecodeRuneInString(sym)
		if keep(r) {
			out = append(out, sym)
		}
	}
	return out
}

// Select resolves a user selection string ("АБВ12") into known symbols.
// Whitespace and commas are ignored, duplicates are dropped and unknown symbols are returned separately.
func (a *Alphabet) Select(spec string) (known, unknown []string) {
	seen := map[string]bool{}
	for _, r := range strings.ToUpper(spec) {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		sym := string(r)
		if seen[sym] {
			continue
		}
		seen[sym] = true
		if a.Has(sym) {
			known = append(known, sym)
		} else {
			unknown = append(unknown, sym)
		}
	}
	return known, unknown
}
