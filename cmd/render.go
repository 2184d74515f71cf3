package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render SYMBOL",
	Short: "Write one symbol to a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default: SYMBOL.wav)")
}

func runRender(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(settings, false)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	if !a.alphabet.Has(symbol) {
		return fmt.Errorf("%w: %q", synth.ErrUnknownSymbol, symbol)
	}
	pcm, err := a.synth.Render(a.alphabet.Plan(symbol, settings.Speed), float64(settings.ToneFrequency))
	if err != nil {
		return err
	}

	path := renderOutput
	if path == "" {
		path = symbol + ".wav"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := synth.EncodeWAV(f, pcm, settings.SampleRate); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d samples at %d Hz)\n", path, len(pcm), settings.SampleRate)
	return nil
}
