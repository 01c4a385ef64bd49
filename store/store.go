// Package store holds the in-memory note collection and its validated
// mutation operations.
package store

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"notebook/internal/note/validation"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("note not found")

type Option func(*Store)

// WithClock overrides time.Now for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the UUID v4 generator for note references.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store keeps notes newest first. Notes are addressed by an immutable id,
// never by position.
type Store struct {
	mu    sync.RWMutex
	order []string
	notes map[string]*Note

	now   func() time.Time
	newID func() string

	// seq is assigned under mu. Delivery waits its turn on delivered, so
	// observers see events in seq order even when mutations race.
	seq       uint64
	deliverMu sync.Mutex
	delivered uint64
	turn      *sync.Cond

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

func New(opts ...Option) *Store {
	s := &Store{
		notes:     make(map[string]*Note),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		observers: make(map[int]Observer),
	}
	s.turn = sync.NewCond(&s.deliverMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of the current notes in store order.
func (s *Store) List() []Note {
	notes, _ := s.Snapshot()
	return notes
}

// Snapshot returns the notes together with the Seq of the last applied
// mutation. Events with a Seq at or below it are already reflected.
func (s *Store) Snapshot() ([]Note, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.notes[id])
	}
	return out, s.seq
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Get(id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return *n, nil
}

// Create validates the pair and prepends a new note. On a validation error
// the store is left unchanged.
func (s *Store) Create(title, body string) (Note, error) {
	if err := validation.Validate(title, body); err != nil {
		return Note{}, err
	}

	now := s.now()
	n := &Note{
		ID:        s.newID(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.notes[n.ID] = n
	s.order = append([]string{n.ID}, s.order...)
	created := *n
	s.commit(Event{Type: EventCreated, Note: created, At: now})
	return created, nil
}

// Update replaces title and body in place. CreatedAt is preserved. An unknown
// id yields ErrNotFound before any validation happens.
func (s *Store) Update(id, title, body string) (Note, error) {
	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return Note{}, ErrNotFound
	}
	if err := validation.Validate(title, body); err != nil {
		s.mu.Unlock()
		return Note{}, err
	}
	now := s.now()
	n.Title = title
	n.Body = body
	n.UpdatedAt = now
	updated := *n
	s.commit(Event{Type: EventUpdated, Note: updated, At: now})
	return updated, nil
}

// Delete removes the note. Deleting a stale id fails with ErrNotFound and
// leaves the list untouched.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	n, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.notes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	removed := *n
	s.commit(Event{Type: EventDeleted, Note: removed, At: s.now()})
	return nil
}

// Subscribe registers an observer and returns a function that removes it.
// Observers run synchronously on the mutating goroutine, outside the store
// lock, in subscription order. Events are delivered one at a time in Seq
// order. An observer may read the store but must not mutate it from the
// callback; that would deadlock on delivery.
func (s *Store) Subscribe(o Observer) (cancel func()) {
	s.obsMu.Lock()
	key := s.nextObs
	s.nextObs++
	s.observers[key] = o
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, key)
			s.obsMu.Unlock()
		})
	}
}

// commit stamps e with the next sequence number, releases mu and delivers e
// once every earlier event has been delivered. The caller must hold mu.
func (s *Store) commit(e Event) {
	s.seq++
	e.Seq = s.seq
	s.mu.Unlock()

	s.deliverMu.Lock()
	for s.delivered != e.Seq-1 {
		s.turn.Wait()
	}
	s.deliverMu.Unlock()

	defer func() {
		s.deliverMu.Lock()
		s.delivered = e.Seq
		s.deliverMu.Unlock()
		s.turn.Broadcast()
	}()
	s.notify(e)
}

func (s *Store) notify(e Event) {
	s.obsMu.Lock()
	keys := slices.Sorted(maps.Keys(s.observers))
	observers := make([]Observer, 0, len(keys))
	for _, k := range keys {
		observers = append(observers, s.observers[k])
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o.NoteChanged(e)
	}
}
