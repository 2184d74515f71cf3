package synth

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const dataURIPrefix = "data:audio/wav;base64,"

// ErrInvalidAssetMode indicates an unknown asset packaging mode
var ErrInvalidAssetMode = errors.New("asset mode must be one of auto, file, inline")

// AssetMode selects how rendered audio is handed to the playback surface.
type AssetMode string

const (
	// AssetAuto picks inline for hosted deployments and file otherwise
	AssetAuto AssetMode = "auto"
	// AssetFile writes a transient WAV file and references it by path
	AssetFile AssetMode = "file"
	// AssetInline embeds the WAV bytes in a data URI
	AssetInline AssetMode = "inline"
)

// ParseAssetMode validates a configured mode string.
func ParseAssetMode(s string) (AssetMode, error) {
	switch m := AssetMode(strings.ToLower(strings.TrimSpace(s))); m {
	case AssetAuto, AssetFile, AssetInline:
		return m, nil
	case "":
		return AssetAuto, nil
	default:
		return "", fmt.Errorf("%w, got %q", ErrInvalidAssetMode, s)
	}
}

// Asset is one playable rendering of a symbol.
type Asset struct {
	Symbol string
	// Ref is either a filesystem path or a data URI, depending on Mode
	Ref        string
	Mode       AssetMode
	Duration   time.Duration
	SampleRate int
	PCM        []int16
}

// Inline reports whether Ref carries the audio itself.
func (a *Asset) Inline() bool {
	return strings.HasPrefix(a.Ref, dataURIPrefix)
}

// Open returns the encoded WAV stream behind Ref.
func (a *Asset) Open() (io.ReadSeekCloser, error) {
	if a.Inline() {
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(a.Ref, dataURIPrefix))
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return nopCloser{bytes.NewReader(data)}, nil
	}
	f, err := os.Open(a.Ref)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return f, nil
}

// DataURI encodes wav bytes as an inline data URI.
func DataURI(wavData []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(wavData)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
