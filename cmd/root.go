// cmd/root.go
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ColonelBlimp/cwtrainer/internal/config"
	"github.com/ColonelBlimp/cwtrainer/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cwtrainer",
	Short: "CW (Morse code) receive trainer",
	Long: `A Morse code trainer that plays symbols from a Cyrillic and digit alphabet
and scores the keys you press. Training modes include words, challenge,
weak spots, speed test and time attack. Results are kept per user.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().IntP("frequency", "f", 800, "tone frequency in Hz (400-1200)")
	rootCmd.PersistentFlags().Float64P("speed", "s", 1.0, "speed multiplier (1.0-2.0)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
	rootCmd.PersistentFlags().String("audio", config.OutputMalgo, "audio output: malgo, beep or none")
	rootCmd.PersistentFlags().String("db", "", "results database path")
	rootCmd.PersistentFlags().String("alphabet", "", "alphabet definition (.json or .toml)")

	// Bind flags to viper
	viper.BindPFlag("device_index", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("tone_frequency", rootCmd.PersistentFlags().Lookup("frequency"))
	viper.BindPFlag("speed", rootCmd.PersistentFlags().Lookup("speed"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("audio"))
	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("alphabet_path", rootCmd.PersistentFlags().Lookup("alphabet"))

	rootCmd.AddCommand(trainCmd, playCmd, renderCmd, selftestCmd, statsCmd, userCmd, alphabetCmd, devicesCmd)
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads and validates the merged configuration.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return settings, nil
}

// setupLogging installs the default logger. With tui set and no log_file,
// output goes to the default log file so it stays off the terminal.
func setupLogging(settings *config.Settings, tui bool) (*slog.Logger, func(), error) {
	file := settings.LogFile
	if tui && file == "" {
		file = config.DefaultLogPath()
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Debug: settings.Debug,
		File:  file,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return logger, func() { _ = closeLog() }, nil
}
