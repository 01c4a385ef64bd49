package store

import "time"

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventType string

const (
	EventCreated EventType = "CREATED"
	EventUpdated EventType = "UPDATED"
	EventDeleted EventType = "DELETED"
)

// Event describes one accepted mutation. For deletes, Note is the last state
// before removal. Seq increases by one per mutation of a store, starting at 1.
type Event struct {
	Seq  uint64
	Type EventType
	Note Note
	At   time.Time
}

// Observer is notified after every successful mutation.
type Observer interface {
	NoteChanged(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) NoteChanged(e Event) { f(e) }
