package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/driver"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

var (
	playSelection selectionFlags
	playCount     int
	playWords     bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play random symbols without scoring",
	Long: `Play random symbols from the selection and print each one as it sounds.
Runs until interrupted or until --count symbols have been played.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVarP(&playCount, "count", "n", 0, "stop after this many symbols (0 = until interrupted)")
	playCmd.Flags().BoolVar(&playWords, "words", false, "play whole words instead of single symbols")
	playSelection.register(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(settings, false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := a.sessionOptions()
	if err != nil {
		return err
	}
	opts.Training = false
	opts.Mode = trainer.ModeNormal
	if playWords {
		opts.Mode = trainer.ModeWords
	}
	session, err := trainer.New(opts)
	if err != nil {
		return err
	}
	if err := session.Start(playSelection.resolve(a.alphabet, settings.Selection, logger)); err != nil {
		return err
	}

	printer := &printSurface{w: cmd.OutOrStdout(), alphabet: a.alphabet, limit: playCount, done: cancel}
	drv, err := driver.New(session, a.renderer, a.surface(ctx, printer), driver.Options{
		Logger:  logger,
		OnPanic: a.cleanup,
	})
	if err != nil {
		return err
	}
	drv.Run(ctx)
	return nil
}

// printSurface writes each presented symbol with its pattern. The run is
// cancelled when the symbol after the limit arrives, so the last one plays out.
type printSurface struct {
	w        io.Writer
	alphabet *cw.Alphabet
	limit    int
	done     context.CancelFunc

	mu    sync.Mutex
	count int
}

func (p *printSurface) Present(asset *synth.Asset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.limit > 0 && p.count >= p.limit {
		p.done()
		return nil
	}
	code := "?"
	if e, ok := p.alphabet.Lookup(asset.Symbol); ok {
		code = e.Pattern.String()
	}
	fmt.Fprintf(p.w, "%s  %s\n", asset.Symbol, code)
	p.count++
	return nil
}

func (p *printSurface) Update() {}
