package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxAssets is the number of transient files retained at once
const DefaultMaxAssets = 50

// ErrInvalidMaxAssets indicates the retention cap must be positive
var ErrInvalidMaxAssets = errors.New("max assets must be positive")

// Spool owns the transient WAV files handed to file-based playback surfaces.
// It keeps at most max files on disk, removing the oldest first.
type Spool struct {
	dir    string
	max    int
	logger *slog.Logger

	mu    sync.Mutex
	paths []string
}

// NewSpool creates dir if needed. An empty dir uses the OS temp directory.
func NewSpool(dir string, max int, logger *slog.Logger) (*Spool, error) {
	if max <= 0 {
		return nil, ErrInvalidMaxAssets
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "cwtrainer")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Spool{dir: dir, max: max, logger: logger}, nil
}

// Dir returns the directory assets are written to.
func (s *Spool) Dir() string {
	return s.dir
}

// Write stores wavData as a new file and returns its path.
func (s *Spool) Write(wavData []byte) (string, error) {
	path := filepath.Join(s.dir, "cwtrainer-"+uuid.NewString()+".wav")
	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}

	s.mu.Lock()
	s.paths = append(s.paths, path)
	var evict []string
	if over := len(s.paths) - s.max; over > 0 {
		evict = append(evict, s.paths[:over]...)
		s.paths = append(s.paths[:0:0], s.paths[over:]...)
	}
	s.mu.Unlock()

	s.remove(evict)
	return path, nil
}

// Len returns the number of retained files.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// Cleanup deletes every retained file. Failures are logged and skipped.
func (s *Spool) Cleanup() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	s.remove(paths)
	if len(paths) > 0 {
		s.logger.Debug("asset spool cleaned", "files", len(paths), "dir", s.dir)
	}
}

func (s *Spool) remove(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to delete asset", "path", p, "err", err)
		}
	}
}
