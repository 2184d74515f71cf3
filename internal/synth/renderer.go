package synth

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

var (
	// ErrUnknownSymbol indicates the symbol has no entry in the alphabet
	ErrUnknownSymbol = errors.New("symbol not in alphabet")
	// ErrSpoolRequired indicates file mode was requested without a spool
	ErrSpoolRequired = errors.New("file asset mode requires a spool")
)

// Renderer produces playable assets for single symbols.
type Renderer struct {
	alphabet *cw.Alphabet
	synth    *Synthesizer
	mode     AssetMode
	spool    *Spool
	logger   *slog.Logger
}

// NewRenderer wires the alphabet and synthesizer to an asset packaging mode.
// mode must already be resolved to AssetFile or AssetInline.
func NewRenderer(alphabet *cw.Alphabet, s *Synthesizer, mode AssetMode, spool *Spool, logger *slog.Logger) (*Renderer, error) {
	switch mode {
	case AssetFile:
		if spool == nil {
			return nil, ErrSpoolRequired
		}
	case AssetInline:
	default:
		return nil, fmt.Errorf("%w, got %q", ErrInvalidAssetMode, mode)
	}
	return &Renderer{alphabet: alphabet, synth: s, mode: mode, spool: spool, logger: logger}, nil
}

// Mode returns the packaging mode.
func (r *Renderer) Mode() AssetMode {
	return r.mode
}

// Alphabet returns the table symbols are looked up in.
func (r *Renderer) Alphabet() *cw.Alphabet {
	return r.alphabet
}

// Render synthesizes symbol at the given speed and tone frequency.
// Unknown symbols return a nil asset and ErrUnknownSymbol.
func (r *Renderer) Render(symbol string, speed, frequency float64) (*Asset, error) {
	if !r.alphabet.Has(symbol) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	plan := r.alphabet.Plan(symbol, speed)
	pcm, err := r.synth.Render(plan, frequency)
	if err != nil {
		return nil, err
	}
	rate := r.synth.Config().SampleRate
	wavData, err := WAVBytes(pcm, rate)
	if err != nil {
		return nil, err
	}

	asset := &Asset{
		Symbol:     symbol,
		Mode:       r.mode,
		Duration:   plan.Duration(),
		SampleRate: rate,
		PCM:        pcm,
	}
	if r.mode == AssetInline {
		asset.Ref = DataURI(wavData)
		return asset, nil
	}

	path, err := r.spool.Write(wavData)
	if err != nil {
		r.logger.Warn("asset write failed, inlining instead", "symbol", symbol, "err", err)
		asset.Mode = AssetInline
		asset.Ref = DataURI(wavData)
		return asset, nil
	}
	asset.Ref = path
	return asset, nil
}
