// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	AppName       = "cwtrainer"
	ConfigType    = "yaml"
	EnvPrefix     = "CWTRAINER"
	DefaultConfig = `# CW Trainer Configuration

# Tone
tone_frequency: 800     # Tone frequency in Hz (400-1200)
speed: 1.0              # Speed multiplier (1.0-2.0, 0.1 steps); 1.0 = 80ms dit
sample_rate: 44100      # Output sample rate in Hz
volume: 0.5             # Peak amplitude (0.0-1.0]
fade_ms: 10             # Linear fade in/out per mark, in ms

# Assets
asset_mode: "auto"      # auto, file or inline (auto = inline on hosted platforms)
asset_dir: ""           # Directory for transient WAV files (empty = OS temp dir)
max_assets: 50          # Transient files kept on disk at once
alphabet_path: ""       # Optional .json or .toml alphabet (empty = built-in)

# Storage
db_path: ""             # SQLite database (empty = $XDG_DATA_HOME/cwtrainer/cwtrainer.db)

# Session
mode: "normal"          # normal, words, challenge, weak_spots, speed_test, time_attack
training: true          # Wait for and score answers
selection: ""           # Symbols to train, e.g. "АБВ123" (empty = whole alphabet)
speed_test_target: 20   # Correct symbols that end a speed test
time_attack_seconds: 60 # Length of a time attack round

# Output
output: "malgo"         # malgo, beep or none
device_index: -1        # -1 for default playback device
notify: false           # Desktop notification when a timed test finishes
log_file: ""            # Log destination (empty = stderr, or $XDG_STATE_HOME/cwtrainer/cwtrainer.log for train)
debug: false            # Enable debug output
`
)

// Output backends
const (
	OutputMalgo = "malgo"
	OutputBeep  = "beep"
	OutputNone  = "none"
)

// Settings holds all application configuration
type Settings struct {
	// Tone
	ToneFrequency int     `mapstructure:"tone_frequency"`
	Speed         float64 `mapstructure:"speed"`
	SampleRate    int     `mapstructure:"sample_rate"`
	Volume        float64 `mapstructure:"volume"`
	FadeMS        int     `mapstructure:"fade_ms"`

	// Assets
	AssetMode    string `mapstructure:"asset_mode"`
	AssetDir     string `mapstructure:"asset_dir"`
	MaxAssets    int    `mapstructure:"max_assets"`
	AlphabetPath string `mapstructure:"alphabet_path"`

	// Storage
	DBPath string `mapstructure:"db_path"`

	// Session
	Mode              string `mapstructure:"mode"`
	Training          bool   `mapstructure:"training"`
	Selection         string `mapstructure:"selection"`
	SpeedTestTarget   int    `mapstructure:"speed_test_target"`
	TimeAttackSeconds int    `mapstructure:"time_attack_seconds"`

	// Output
	Output      string `mapstructure:"output"`
	DeviceIndex int    `mapstructure:"device_index"`
	Notify      bool   `mapstructure:"notify"`
	LogFile     string `mapstructure:"log_file"`
	Debug       bool   `mapstructure:"debug"`
}

// Fade returns fade_ms as a duration.
func (s *Settings) Fade() time.Duration {
	return time.Duration(s.FadeMS) * time.Millisecond
}

// TimeAttack returns time_attack_seconds as a duration.
func (s *Settings) TimeAttack() time.Duration {
	return time.Duration(s.TimeAttackSeconds) * time.Second
}

// Database returns db_path, falling back to the XDG data location.
func (s *Settings) Database() string {
	if s.DBPath != "" {
		return s.DBPath
	}
	return DefaultDBPath()
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwtrainer/
func Init() error {
	viper.SetDefault("tone_frequency", 800)
	viper.SetDefault("speed", 1.0)
	viper.SetDefault("sample_rate", 44100)
	viper.SetDefault("volume", 0.5)
	viper.SetDefault("fade_ms", 10)
	viper.SetDefault("asset_mode", "auto")
	viper.SetDefault("asset_dir", "")
	viper.SetDefault("max_assets", 50)
	viper.SetDefault("alphabet_path", "")
	viper.SetDefault("db_path", "")
	viper.SetDefault("mode", "normal")
	viper.SetDefault("training", true)
	viper.SetDefault("selection", "")
	viper.SetDefault("speed_test_target", 20)
	viper.SetDefault("time_attack_seconds", 60)
	viper.SetDefault("output", OutputMalgo)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("notify", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("debug", false)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Watch calls fn with freshly validated settings whenever the config file
// changes. Invalid edits are reported to onError and otherwise ignored.
func Watch(fn func(*Settings), onError func(error)) {
	viper.OnConfigChange(func(fsnotify.Event) {
		s, err := Get()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(s)
	})
	viper.WatchConfig()
}

var validModes = []string{"normal", "words", "challenge", "weak_spots", "speed_test", "time_attack"}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Tone
	if s.ToneFrequency < 400 || s.ToneFrequency > 1200 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 400 and 1200 Hz, got %d", s.ToneFrequency))
	}
	if s.Speed < 1.0 || s.Speed > 2.0 {
		errs = append(errs, fmt.Errorf("speed must be between 1.0 and 2.0, got %v", s.Speed))
	}
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}
	if s.Volume <= 0 || s.Volume > 1.0 {
		errs = append(errs, fmt.Errorf("volume must be greater than 0 and at most 1.0, got %v", s.Volume))
	}
	if s.FadeMS < 0 || s.FadeMS > 40 {
		errs = append(errs, fmt.Errorf("fade_ms must be between 0 and 40, got %d", s.FadeMS))
	}

	// Assets
	switch strings.ToLower(s.AssetMode) {
	case "", "auto", "file", "inline":
	default:
		errs = append(errs, fmt.Errorf("asset_mode must be one of auto, file, inline, got %q", s.AssetMode))
	}
	if s.MaxAssets < 1 || s.MaxAssets > 1000 {
		errs = append(errs, fmt.Errorf("max_assets must be between 1 and 1000, got %d", s.MaxAssets))
	}
	if ext := strings.ToLower(filepath.Ext(s.AlphabetPath)); s.AlphabetPath != "" && ext != ".json" && ext != ".toml" {
		errs = append(errs, fmt.Errorf("alphabet_path must be a .json or .toml file, got %q", s.AlphabetPath))
	}

	// Session
	if !validMode(s.Mode) {
		errs = append(errs, fmt.Errorf("mode must be one of %s, got %q", strings.Join(validModes, ", "), s.Mode))
	}
	if s.SpeedTestTarget < 1 || s.SpeedTestTarget > 500 {
		errs = append(errs, fmt.Errorf("speed_test_target must be between 1 and 500, got %d", s.SpeedTestTarget))
	}
	if s.TimeAttackSeconds < 5 || s.TimeAttackSeconds > 3600 {
		errs = append(errs, fmt.Errorf("time_attack_seconds must be between 5 and 3600, got %d", s.TimeAttackSeconds))
	}

	// Output
	switch s.Output {
	case OutputMalgo, OutputBeep, OutputNone:
	default:
		errs = append(errs, fmt.Errorf("output must be one of malgo, beep, none, got %q", s.Output))
	}
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 (default) or a device number, got %d", s.DeviceIndex))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if float64(s.ToneFrequency) >= float64(s.SampleRate)/2 {
		errs = append(errs, fmt.Errorf("tone_frequency (%d Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, float64(s.SampleRate)/2))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validMode(m string) bool {
	return lo.Contains(validModes, strings.ReplaceAll(strings.ToLower(strings.TrimSpace(m)), "-", "_"))
}
