package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

// Record is a stored achievement.
type Record struct {
	ID     int64
	UserID int64
	trainer.Achievement
}

const achievementColumns = `id, user_id, run_id, mode, score, wpm, accuracy, time_taken,
	symbols_completed, correct_answers, incorrect_answers, created_at`

// InsertAchievement appends a to userID's log and returns the new row id.
func (s *Store) InsertAchievement(ctx context.Context, userID int64, a trainer.Achievement) (int64, error) {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO achievements
		(user_id, run_id, mode, score, wpm, accuracy, time_taken,
		 symbols_completed, correct_answers, incorrect_answers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, a.RunID, string(a.Mode), a.Score, a.WPM, a.Accuracy, a.Elapsed.Seconds(),
		a.SymbolsCompleted, a.Correct, a.Incorrect, formatTime(created))
	if err != nil {
		return 0, fmt.Errorf("insert achievement: %w", err)
	}
	return res.LastInsertId()
}

// bestOrder ranks results within a mode.
func bestOrder(mode trainer.Mode) string {
	switch mode {
	case trainer.ModeSpeedTest:
		return "wpm DESC, accuracy DESC"
	case trainer.ModeTimeAttack:
		return "score DESC, accuracy DESC"
	default:
		return "score DESC"
	}
}

// BestResult returns userID's top result in mode. The bool is false when the
// user has no results in that mode.
func (s *Store) BestResult(ctx context.Context, userID int64, mode trainer.Mode) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+achievementColumns+` FROM achievements
		 WHERE user_id = ? AND mode = ?
		 ORDER BY `+bestOrder(mode)+`, created_at ASC, id ASC LIMIT 1`,
		userID, string(mode))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// History returns userID's results newest first. An empty mode matches every
// mode; limit <= 0 uses HistoryLimit.
func (s *Store) History(ctx context.Context, userID int64, mode trainer.Mode, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE user_id = ?`
	args := []any{userID}
	if mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(mode))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort rows close.
		_ = rows.Close()
	}()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec     Record
		mode    string
		seconds float64
		created string
	)
	if err := sc.Scan(&rec.ID, &rec.UserID, &rec.RunID, &mode, &rec.Score, &rec.WPM, &rec.Accuracy,
		&seconds, &rec.SymbolsCompleted, &rec.Correct, &rec.Incorrect, &created); err != nil {
		return Record{}, err
	}
	rec.Mode = trainer.Mode(mode)
	rec.Elapsed = time.Duration(seconds * float64(time.Second))
	t, err := parseTime(created)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = t
	return rec, nil
}

// Recorder stores finished runs for one user.
type Recorder struct {
	store  *Store
	userID int64
}

// Recorder returns a Recorder that files achievements under userID.
func (s *Store) Recorder(userID int64) *Recorder {
	return &Recorder{store: s, userID: userID}
}

// Record inserts a.
func (r *Recorder) Record(ctx context.Context, a trainer.Achievement) error {
	_, err := r.store.InsertAchievement(ctx, r.userID, a)
	return err
}
