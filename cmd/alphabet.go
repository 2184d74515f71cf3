package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

var (
	symbolStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	patternStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mnemonicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	headingStyle  = lipgloss.NewStyle().Underline(true)
)

var alphabetCmd = &cobra.Command{
	Use:   "alphabet",
	Short: "Print the alphabet with patterns and mnemonics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		alphabet, err := cw.Load(settings.AlphabetPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printGroup(out, "Letters", alphabet, alphabet.Letters())
		fmt.Fprintln(out)
		printGroup(out, "Digits", alphabet, alphabet.Digits())
		return nil
	},
}

func printGroup(w io.Writer, title string, alphabet *cw.Alphabet, symbols []string) {
	fmt.Fprintln(w, headingStyle.Render(title))
	width := 0
	for _, sym := range symbols {
		e, _ := alphabet.Lookup(sym)
		width = max(width, runewidth.StringWidth(e.Pattern.String()))
	}
	for _, sym := range symbols {
		e, _ := alphabet.Lookup(sym)
		line := symbolStyle.Render(runewidth.FillRight(sym, 2)) + "  " +
			patternStyle.Render(runewidth.FillRight(e.Pattern.String(), width))
		if e.Mnemonic != "" {
			line += "  " + mnemonicStyle.Render(e.Mnemonic)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
