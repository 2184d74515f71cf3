package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

// hostedEnv lists variables set by hosting platforms that have no local
// audio device or writable scratch space.
var hostedEnv = []string{"RENDER", "RAILWAY_ENVIRONMENT", "PORT"}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return filepath.Join(os.TempDir(), AppName)
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return filepath.Join(os.TempDir(), AppName)
}

// DefaultLogPath returns where the trainer logs while the TUI owns the terminal.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), AppName, AppName+".log")
}

// DefaultDBPath returns the default SQLite location.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), AppName, AppName+".db")
}

// ResolveAssetMode turns the configured asset_mode into file or inline.
// auto picks inline when any hosted-platform variable is present.
func ResolveAssetMode(configured string, getenv func(string) string) (synth.AssetMode, error) {
	mode, err := synth.ParseAssetMode(configured)
	if err != nil {
		return "", err
	}
	if mode != synth.AssetAuto {
		return mode, nil
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range hostedEnv {
		if strings.TrimSpace(getenv(key)) != "" {
			return synth.AssetInline, nil
		}
	}
	return synth.AssetFile, nil
}
