package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/audio"
	"github.com/ColonelBlimp/cwtrainer/internal/config"
	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/driver"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

// app holds the components shared by the playback commands.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	alphabet *cw.Alphabet
	synth    *synth.Synthesizer
	spool    *synth.Spool
	renderer *synth.Renderer

	closers []func()
}

// newApp builds the alphabet, synthesizer and renderer from settings.
// A broken alphabet file degrades to an empty table rather than failing.
func newApp(settings *config.Settings, logger *slog.Logger) (*app, error) {
	a := &app{
		settings: settings,
		logger:   logger,
		alphabet: cw.LoadOrEmpty(settings.AlphabetPath, logger),
	}

	s, err := synth.New(synth.Config{
		SampleRate: settings.SampleRate,
		Volume:     settings.Volume,
		Fade:       settings.Fade(),
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a.synth = s

	mode, err := config.ResolveAssetMode(settings.AssetMode, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if mode == synth.AssetFile {
		spool, err := synth.NewSpool(settings.AssetDir, settings.MaxAssets, logger)
		if err != nil {
			return nil, err
		}
		a.spool = spool
		a.closers = append(a.closers, spool.Cleanup)
	}

	a.renderer, err = synth.NewRenderer(a.alphabet, s, mode, a.spool, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("renderer ready", "asset_mode", mode, "symbols", a.alphabet.Len())
	return a, nil
}

// Close releases audio devices and removes transient assets, newest first.
func (a *app) Close() {
	for _, fn := range slices.Backward(a.closers) {
		fn()
	}
	a.closers = nil
}

// cleanup removes transient assets; safe to call from a panic handler.
func (a *app) cleanup() {
	if a.spool != nil {
		a.spool.Cleanup()
	}
}

// sessionOptions maps settings onto a trainer configuration.
func (a *app) sessionOptions() (trainer.Options, error) {
	mode, err := trainer.ParseMode(a.settings.Mode)
	if err != nil {
		return trainer.Options{}, fmt.Errorf("config: %w", err)
	}
	opts := trainer.DefaultOptions()
	opts.Mode = mode
	opts.Training = a.settings.Training
	opts.Speed = cw.ClampSpeed(a.settings.Speed)
	opts.Frequency = a.settings.ToneFrequency
	opts.SpeedTestTarget = a.settings.SpeedTestTarget
	opts.TimeAttack = a.settings.TimeAttack()
	opts.Translate = cw.TranslateKey
	return opts, nil
}

// player opens the configured output. Device failures are logged and
// playback continues silently, since the trainer is usable without sound.
func (a *app) player(ctx context.Context) driver.Player {
	switch a.settings.Output {
	case config.OutputMalgo:
		p := audio.New(audio.Config{
			DeviceIndex: a.settings.DeviceIndex,
			SampleRate:  uint32(a.settings.SampleRate),
			BufferSize:  audio.DefaultConfig().BufferSize,
		})
		if err := p.Init(); err != nil {
			a.logger.Warn("audio output unavailable", "output", a.settings.Output, "err", err)
			return nil
		}
		if err := p.Start(ctx); err != nil {
			_ = p.Close()
			a.logger.Warn("audio output unavailable", "output", a.settings.Output, "err", err)
			return nil
		}
		a.closers = append(a.closers, func() {
			_ = p.Stop()
			_ = p.Close()
		})
		return p
	case config.OutputBeep:
		if !audio.SpeakerAvailable {
			a.logger.Warn("beep output requires cgo on this platform")
			return nil
		}
		sp := audio.NewSpeaker(a.settings.SampleRate)
		a.closers = append(a.closers, func() { _ = sp.Close() })
		return sp
	default:
		return nil
	}
}

// surface combines the given surfaces with the audio player, if any.
func (a *app) surface(ctx context.Context, surfaces ...driver.Surface) driver.Surface {
	if p := a.player(ctx); p != nil {
		surfaces = append(surfaces, driver.PlayerSurface(p, nil))
	}
	switch len(surfaces) {
	case 0:
		return driver.Discard
	case 1:
		return surfaces[0]
	default:
		return driver.Fanout(surfaces...)
	}
}

// selectionFlags are the symbol selection flags shared by train and play.
type selectionFlags struct {
	symbols string
	digits  bool
	letters bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.symbols, "symbols", "", `symbols to train, e.g. "АБВ12" (default: selection from config)`)
	cmd.Flags().BoolVar(&f.digits, "digits", false, "add every digit to the selection")
	cmd.Flags().BoolVar(&f.letters, "letters", false, "add every letter to the selection")
}

// resolve turns the flags into an ordered, de-duplicated selection. With no
// flags the configured selection is used, and an empty one means everything.
func (f *selectionFlags) resolve(alphabet *cw.Alphabet, configured string, logger *slog.Logger) []string {
	spec := f.symbols
	if spec == "" && !f.digits && !f.letters {
		spec = configured
		if spec == "" {
			return alphabet.Symbols()
		}
	}

	known, unknown := alphabet.Select(spec)
	if len(unknown) > 0 {
		logger.Warn("ignoring symbols not in the alphabet", "symbols", unknown)
	}
	if f.digits {
		known = append(known, alphabet.Digits()...)
	}
	if f.letters {
		known = append(known, alphabet.Letters()...)
	}
	return lo.Uniq(known)
}
