package cmd

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/dsp"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Synthesize every symbol and decode it back",
	Long: `Render every alphabet symbol at the configured speed and tone, encode it
as WAV, decode the file and check with a Goertzel detector that the tone
spells the expected pattern.`,
	Args: cobra.NoArgs,
	RunE: runSelftest,
}

func runSelftest(cmd *cobra.Command, args []string) error {
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

	if a.alphabet.Len() == 0 {
		return fmt.Errorf("selftest: alphabet is empty")
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Expected", "Heard", "Result"})

	failed := 0
	frequency := float64(settings.ToneFrequency)
	for _, e := range a.alphabet.Entries() {
		heard, err := verifySymbol(a, e.Symbol, settings.Speed, frequency, settings.SampleRate)
		result := text.FgGreen.Sprint("ok")
		if err != nil {
			failed++
			result = text.FgRed.Sprint(err.Error())
		}
		t.AppendRow(table.Row{e.Symbol, e.Pattern.String(), heard, result})
	}
	t.AppendFooter(table.Row{"", "", "failed", fmt.Sprintf("%d / %d", failed, a.alphabet.Len())})
	t.Render()

	if failed > 0 {
		return fmt.Errorf("selftest: %d of %d symbols failed", failed, a.alphabet.Len())
	}
	return nil
}

// verifySymbol round-trips symbol through WAV and the tone detector and
// returns the pattern it heard.
func verifySymbol(a *app, symbol string, speed, frequency float64, sampleRate int) (string, error) {
	plan := a.alphabet.Plan(symbol, speed)
	pcm, err := a.synth.Render(plan, frequency)
	if err != nil {
		return "", err
	}
	data, err := synth.WAVBytes(pcm, sampleRate)
	if err != nil {
		return "", err
	}
	decoded, rate, err := synth.DecodeWAV(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	entry, _ := a.alphabet.Lookup(symbol)
	got, err := dsp.Verify(decoded, rate, frequency, entry.Pattern, plan.Dit)
	if got == nil {
		return "", err
	}
	return got.String(), err
}
