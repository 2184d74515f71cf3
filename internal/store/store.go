// internal/store/store.go
// Package store persists user accounts and the achievement log in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite" // SQLite driver.
)

// HistoryLimit is the default number of results History returns
const HistoryLimit = 50

var (
	// ErrInvalidUsername indicates the username is empty after trimming
	ErrInvalidUsername = errors.New("username must not be empty")
	// ErrEmptyPassword indicates an empty password
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrUserExists indicates the username is already taken
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound indicates no user has that name
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates an unknown user or a wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Store wraps SQLite access for users and achievements.
type Store struct {
	db   *sql.DB
	cost int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, cost: bcrypt.DefaultCost}
	if err := s.migrate(); err != nil {
		// Best-effort close on migration failure.
		_ = db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			run_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			wpm REAL NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			time_taken REAL NOT NULL DEFAULT 0,
			symbols_completed INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			incorrect_answers INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_achievements_user_mode ON achievements(user_id, mode);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_achievements_run ON achievements(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func normalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidUsername
	}
	return name, nil
}
