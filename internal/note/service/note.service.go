package service

import (
	"errors"
	"notebook/internal/journal/repository"
	"notebook/pkg/logger"
	"notebook/store"
	"sync"
)

// Notifier receives every accepted mutation of a session.
type Notifier interface {
	NotifyEvent(sessionID string, e store.Event)
}

// Journal records mutations. Failures never fail the mutation itself.
type Journal interface {
	Record(sessionID string, e store.Event) error
}

// ActivityReader is implemented by journals that can be read back.
type ActivityReader interface {
	ListBySession(sessionID string, limit int) ([]repository.Entry, error)
}

// SessionCloser is implemented by notifiers holding per-session connections.
type SessionCloser interface {
	RemoveSession(sessionID string)
}

var ErrJournalDisabled = errors.New("activity journal is disabled")

const DefaultActivityLimit = 50

type session struct {
	store  *store.Store
	cancel func()
}

// NoteService keeps one isolated note store per session.
type NoteService struct {
	Notifier Notifier
	Journal  Journal

	mu        sync.Mutex
	sessions  map[string]*session
	storeOpts []store.Option
}

func NewNoteService(notifier Notifier, journal Journal, opts ...store.Option) *NoteService {
	return &NoteService{
		Notifier:  notifier,
		Journal:   journal,
		sessions:  make(map[string]*session),
		storeOpts: opts,
	}
}

// NewJournal adapts a journal repository, returning nil when there is none so
// the service skips journaling.
func NewJournal(repo *repository.JournalRepository) Journal {
	if repo == nil {
		return nil
	}
	return repo
}

// Store returns the session's store, creating it on first use.
func (s *NoteService) Store(sessionID string) *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess.store
	}

	st := store.New(s.storeOpts...)
	cancel := st.Subscribe(store.ObserverFunc(func(e store.Event) {
		s.dispatch(sessionID, e)
	}))
	s.sessions[sessionID] = &session{store: st, cancel: cancel}
	logger.Sugar.Debugf("Opened note session %s", sessionID)
	return st
}

func (s *NoteService) dispatch(sessionID string, e store.Event) {
	if s.Journal != nil {
		if err := s.Journal.Record(sessionID, e); err != nil {
			logger.Sugar.Warnf("Journal write failed for session %s: %v", sessionID, err)
		}
	}
	if s.Notifier != nil {
		s.Notifier.NotifyEvent(sessionID, e)
	}
}

func (s *NoteService) ListNotes(sessionID string) []store.Note {
	return s.Store(sessionID).List()
}

func (s *NoteService) GetNote(sessionID, noteID string) (store.Note, error) {
	return s.Store(sessionID).Get(noteID)
}

func (s *NoteService) CreateNote(sessionID, title, body string) (store.Note, error) {
	return s.Store(sessionID).Create(title, body)
}

func (s *NoteService) UpdateNote(sessionID, noteID, title, body string) (store.Note, error) {
	return s.Store(sessionID).Update(noteID, title, body)
}

func (s *NoteService) DeleteNote(sessionID, noteID string) error {
	return s.Store(sessionID).Delete(noteID)
}

// Snapshot returns the session's notes without opening a new session.
func (s *NoteService) Snapshot(sessionID string) ([]store.Note, uint64) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return []store.Note{}, 0
	}
	return sess.store.Snapshot()
}

// CloseSession discards a session's notes.
func (s *NoteService) CloseSession(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		sess.cancel()
		logger.Sugar.Debugf("Closed note session %s", sessionID)
	}
	if closer, ok := s.Notifier.(SessionCloser); ok {
		closer.RemoveSession(sessionID)
	}
}

// Activity returns the session's journaled events, newest first.
func (s *NoteService) Activity(sessionID string, limit int) ([]repository.Entry, error) {
	reader, ok := s.Journal.(ActivityReader)
	if !ok {
		return nil, ErrJournalDisabled
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return reader.ListBySession(sessionID, limit)
}

func (s *NoteService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
