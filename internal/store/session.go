package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/repcount/internal/exercise"
)

// Session is one stored workout session for a single exercise.
type Session struct {
	ID               string        `json:"id"`
	Exercise         exercise.Kind `json:"exercise"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	RepCount         int           `json:"rep_count"`
	HoldCount        int           `json:"hold_count"`
	TotalHoldSeconds float64       `json:"total_hold_seconds"`
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// SessionTotals are the final counters written when a session ends.
type SessionTotals struct {
	RepCount         int
	HoldCount        int
	TotalHoldSeconds float64
}

// SessionRepository provides access to stored sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is filled with a UUID and a zero
// StartedAt with the current time.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, exercise, started_at_ms, ended_at_ms, rep_count, hold_count, total_hold_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Exercise), s.StartedAt.UnixMilli(), nullMillis(s.EndedAt),
		s.RepCount, s.HoldCount, s.TotalHoldSeconds,
	)
	return err
}

const sessionColumns = `id, exercise, started_at_ms, ended_at_ms, rep_count, hold_count, total_hold_seconds`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	s := &Session{}
	var kind string
	var started int64
	var ended sql.NullInt64

	err := row.Scan(&s.ID, &kind, &started, &ended, &s.RepCount, &s.HoldCount, &s.TotalHoldSeconds)
	if err != nil {
		return nil, err
	}

	s.Exercise = exercise.Kind(kind)
	s.StartedAt = time.UnixMilli(started)
	if ended.Valid {
		t := time.UnixMilli(ended.Int64)
		s.EndedAt = &t
	}
	return s, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns sessions newest first. A limit of zero or less returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at_ms DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// End marks a session finished and stores its final totals.
func (r *SessionRepository) End(id string, endedAt time.Time, totals SessionTotals) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at_ms = ?, rep_count = ?, hold_count = ?, total_hold_seconds = ?
		 WHERE id = ?`,
		endedAt.UnixMilli(), totals.RepCount, totals.HoldCount, totals.TotalHoldSeconds, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
