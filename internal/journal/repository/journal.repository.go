package repository

import (
	"database/sql"
	"notebook/pkg/logger"
	"notebook/store"
	"time"
)

// Entry is one row of the activity journal.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	NoteID     string    `json:"note_id"`
	EventType  string    `json:"event_type"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS note_events (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	note_id     TEXT        NOT NULL,
	event_type  TEXT        NOT NULL,
	title       TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

// JournalRepository appends note mutation events to PostgreSQL. It is write
// mostly; nothing reloads notes from it.
type JournalRepository struct {
	DB *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{DB: db}
}

func (r *JournalRepository) EnsureSchema() error {
	_, err := r.DB.Exec(schema)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note_events table: %v", err)
	}
	return err
}

func (r *JournalRepository) Record(sessionID string, e store.Event) error {
	_, err := r.DB.Exec(`INSERT INTO note_events (session_id, note_id, event_type, title, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		sessionID, e.Note.ID, string(e.Type), e.Note.Title, e.At)
	if err != nil {
		logger.Sugar.Errorf("Failed to journal %s of note %s: %v", e.Type, e.Note.ID, err)
	}
	return err
}

// ListBySession returns the most recent events of a session, newest first.
func (r *JournalRepository) ListBySession(sessionID string, limit int) ([]Entry, error) {
	rows, err := r.DB.Query(`SELECT id, session_id, note_id, event_type, title, occurred_at FROM note_events
		WHERE session_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list journal for session %s: %v", sessionID, err)
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.NoteID, &e.EventType, &e.Title, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
