package store

import (
	"database/sql"
	"time"
)

// RepEvent records one counted repetition.
type RepEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	Label     string    `json:"label"`
	At        time.Time `json:"at"`
}

// HoldEvent records one finished isometric hold.
type HoldEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	Seconds   float64   `json:"seconds"`
	At        time.Time `json:"at"`
}

// RepRepository stores rep events.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep event repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Record inserts a rep event and sets its ID.
func (r *RepRepository) Record(e *RepEvent) error {
	result, err := r.db.Exec(
		`INSERT INTO rep_events (session_id, count, label, occurred_ms) VALUES (?, ?, ?, ?)`,
		e.SessionID, e.Count, e.Label, e.At.UnixMilli(),
	)
	if err != nil {
		return err
	}
	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the rep events of a session in the order they happened.
func (r *RepRepository) ListBySession(sessionID string) ([]RepEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, count, label, occurred_ms FROM rep_events
		 WHERE session_id = ? ORDER BY occurred_ms, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []RepEvent
	for rows.Next() {
		var e RepEvent
		var ms int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Count, &e.Label, &ms); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(ms)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// HoldRepository stores hold events.
type HoldRepository struct {
	db *sql.DB
}

// Holds returns the hold event repository for this store.
func (s *Store) Holds() *HoldRepository {
	return &HoldRepository{db: s.db}
}

// Record inserts a hold event and sets its ID.
func (r *HoldRepository) Record(e *HoldEvent) error {
	result, err := r.db.Exec(
		`INSERT INTO hold_events (session_id, label, seconds, ended_ms) VALUES (?, ?, ?, ?)`,
		e.SessionID, e.Label, e.Seconds, e.At.UnixMilli(),
	)
	if err != nil {
		return err
	}
	e.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns the hold events of a session in the order they ended.
func (r *HoldRepository) ListBySession(sessionID string) ([]HoldEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, label, seconds, ended_ms FROM hold_events
		 WHERE session_id = ? ORDER BY ended_ms, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []HoldEvent
	for rows.Next() {
		var e HoldEvent
		var ms int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Label, &e.Seconds, &ms); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(ms)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
