package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwtrainer/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio playback devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := audio.New(audio.DefaultConfig())
		if err := p.Init(); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		defer p.Close()

		devices, err := p.ListDevices()
		if err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available playback devices:")
		for i, d := range devices {
			def := ""
			if d.IsDefault != 0 {
				def = " (default)"
			}
			fmt.Fprintf(out, "  [%d] %s%s\n", i, d.Name(), def)
		}
		return nil
	},
}
