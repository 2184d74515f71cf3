package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that achievements are recorded against.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// CreateUser registers username with a bcrypt hash of password.
func (s *Store) CreateUser(ctx context.Context, username, password string) (User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return User{}, err
	}
	if password == "" {
		return User{}, ErrEmptyPassword
	}
	if _, err := s.lookupUser(ctx, username); err == nil {
		return User{}, fmt.Errorf("%w: %q", ErrUserExists, username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), formatTime(now))
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Username: username, CreatedAt: now}, nil
}

// Authenticate checks password against the stored hash. Unknown users and
// wrong passwords both return ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	var (
		u       User
		hash    string
		created string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return User{}, err
	}
	return u, nil
}

// LookupUser returns the user named username.
func (s *Store) LookupUser(ctx context.Context, username string) (User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return User{}, err
	}
	return s.lookupUser(ctx, username)
}

func (s *Store) lookupUser(ctx context.Context, username string) (User, error) {
	var (
		u       User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, created_at FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	var users []User
	for rows.Next() {
		var (
			u       User
			created string
		)
		if err := rows.Scan(&u.ID, &u.Username, &created); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdatePassword replaces the stored hash for username.
func (s *Store) UpdatePassword(ctx context.Context, username, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	u, err := s.LookupUser(ctx, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, string(hash), u.ID)
	return err
}

// RenameUser changes a username, keeping its achievements.
func (s *Store) RenameUser(ctx context.Context, from, to string) error {
	u, err := s.LookupUser(ctx, from)
	if err != nil {
		return err
	}
	to, err = normalizeUsername(to)
	if err != nil {
		return err
	}
	if to == u.Username {
		return nil
	}
	if _, err := s.lookupUser(ctx, to); err == nil {
		return fmt.Errorf("%w: %q", ErrUserExists, to)
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET username = ? WHERE id = ?`, to, u.ID)
	return err
}

// DeleteUser removes username and all of its achievements.
func (s *Store) DeleteUser(ctx context.Context, username string) (err error) {
	u, err := s.LookupUser(ctx, username)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			// Best-effort rollback.
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM achievements WHERE user_id = ?`, u.ID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
		return err
	}
	return tx.Commit()
}
