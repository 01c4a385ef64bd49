package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"notebook/internal/note/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestStore() *Store {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now))
}

func TestNoteLifecycleScenario(t *testing.T) {
	s := newTestStore()

	_, err := s.Create("Hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrTitleTooShort)
	assert.Empty(t, s.List())

	note, err := s.Create("Hello", "Body")
	require.NoError(t, err)
	notes := s.List()
	require.Len(t, notes, 1)
	assert.Equal(t, "Hello", notes[0].Title)
	assert.Equal(t, "Body", notes[0].Body)

	updated, err := s.Update(note.ID, "Hello World", "Body2")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", s.List()[0].Title)
	assert.Equal(t, "Body2", s.List()[0].Body)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))

	require.NoError(t, s.Delete(note.ID))
	assert.Empty(t, s.List())

	err = s.Delete(note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePrependsNewest(t *testing.T) {
	s := newTestStore()
	for _, title := range []string{"first", "second", "third"} {
		_, err := s.Create(title, "")
		require.NoError(t, err)
	}

	var titles []string
	for _, n := range s.List() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"third", "second", "first"}, titles)
}

func TestCreateAllowsDuplicateTitles(t *testing.T) {
	s := newTestStore()
	a, err := s.Create("same", "")
	require.NoError(t, err)
	b, err := s.Create("same", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, s.Len())
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	s := newTestStore()
	_, err := s.Update("missing", "x", "")
	assert.ErrorIs(t, err, ErrNotFound, "lookup happens before validation")
}

func TestUpdateRejectedLeavesNoteUnchanged(t *testing.T) {
	s := newTestStore()
	note, err := s.Create("Hello", "Body")
	require.NoError(t, err)

	_, err = s.Update(note.ID, strings.Repeat("t", 51), strings.Repeat("b", 121))
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrTitleTooLong)
	assert.ErrorIs(t, err, validation.ErrBodyTooLong)

	got, err := s.Get(note.ID)
	require.NoError(t, err)
	assert.Equal(t, note, got)
}

func TestDeleteKeepsOtherNotesInOrder(t *testing.T) {
	s := newTestStore()
	a, _ := s.Create("alpha", "")
	b, _ := s.Create("bravo", "")
	c, _ := s.Create("charlie", "")

	require.NoError(t, s.Delete(b.ID))

	notes := s.List()
	require.Len(t, notes, 2)
	assert.Equal(t, c.ID, notes[0].ID)
	assert.Equal(t, a.ID, notes[1].ID)

	_, err := s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(b.ID), ErrNotFound)
	assert.Len(t, s.List(), 2)
}

func TestListReturnsCopy(t *testing.T) {
	s := newTestStore()
	_, err := s.Create("Hello", "")
	require.NoError(t, err)

	first := s.List()
	first[0].Title = "mutated"
	assert.Equal(t, "Hello", s.List()[0].Title)
	assert.Equal(t, s.List(), s.List())
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	s := New(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("note-%d", n)
	}))

	note, err := s.Create("Hello", "")
	require.NoError(t, err)
	assert.Equal(t, "note-1", note.ID)
}

func TestSubscribeReceivesEventsInOrder(t *testing.T) {
	s := newTestStore()

	var got []string
	cancelA := s.Subscribe(ObserverFunc(func(e Event) {
		got = append(got, "a:"+string(e.Type))
	}))
	s.Subscribe(ObserverFunc(func(e Event) {
		got = append(got, "b:"+string(e.Type))
	}))

	note, err := s.Create("Hello", "")
	require.NoError(t, err)
	_, err = s.Update(note.ID, "Hello again", "")
	require.NoError(t, err)

	cancelA()
	cancelA()
	require.NoError(t, s.Delete(note.ID))

	assert.Equal(t, []string{
		"a:CREATED", "b:CREATED",
		"a:UPDATED", "b:UPDATED",
		"b:DELETED",
	}, got)
}

func TestEventsDeliveredInCommitOrder(t *testing.T) {
	s := newTestStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	var got []Event
	s.Subscribe(ObserverFunc(func(e Event) {
		if e.Type == EventCreated {
			close(entered)
			<-release
		}
		got = append(got, e)
	}))

	created := make(chan error, 1)
	go func() {
		_, err := s.Create("Hello", "")
		created <- err
	}()
	<-entered

	// The note is committed while its CREATED event is still being delivered.
	notes := s.List()
	require.Len(t, notes, 1)

	deleted := make(chan error, 1)
	go func() { deleted <- s.Delete(notes[0].ID) }()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, time.Millisecond)
	select {
	case <-deleted:
		t.Fatal("delete returned before the earlier event was delivered")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-created)
	require.NoError(t, <-deleted)

	require.Len(t, got, 2)
	assert.Equal(t, EventCreated, got[0].Type)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, EventDeleted, got[1].Type)
	assert.Equal(t, uint64(2), got[1].Seq)
}

func TestConcurrentEventsArriveInSeqOrder(t *testing.T) {
	s := New()

	var got []Event
	s.Subscribe(ObserverFunc(func(e Event) { got = append(got, e) }))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := s.Create(fmt.Sprintf("note %d", i), "")
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := s.Update(n.ID, fmt.Sprintf("note %d v2", i), ""); err != nil {
				t.Error(err)
			}
			if err := s.Delete(n.ID); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, got, 120)
	stage := map[string]EventType{}
	for i, e := range got {
		assert.Equal(t, uint64(i+1), e.Seq)
		switch e.Type {
		case EventCreated:
			assert.NotContains(t, stage, e.Note.ID)
		case EventUpdated:
			assert.Equal(t, EventCreated, stage[e.Note.ID], "update of %s before create", e.Note.ID)
		case EventDeleted:
			assert.Equal(t, EventUpdated, stage[e.Note.ID], "delete of %s out of order", e.Note.ID)
		}
		stage[e.Note.ID] = e.Type
	}

	notes, seq := s.Snapshot()
	assert.Empty(t, notes)
	assert.Equal(t, uint64(120), seq)
}

func TestSnapshotSeqCoversAppliedEvents(t *testing.T) {
	s := newTestStore()
	notes, seq := s.Snapshot()
	assert.Empty(t, notes)
	assert.Zero(t, seq)

	n, err := s.Create("Hello", "")
	require.NoError(t, err)
	_, _ = s.Create("no", "")

	notes, seq = s.Snapshot()
	require.Len(t, notes, 1)
	assert.Equal(t, n.ID, notes[0].ID)
	assert.Equal(t, uint64(1), seq)
}

func TestRejectedMutationsDoNotNotify(t *testing.T) {
	s := newTestStore()
	calls := 0
	s.Subscribe(ObserverFunc(func(Event) { calls++ }))

	_, _ = s.Create("no", "")
	_, _ = s.Update("missing", "Hello", "")
	_ = s.Delete("missing")

	assert.Zero(t, calls)
}

func TestObserverMayReadStore(t *testing.T) {
	s := newTestStore()
	var seen int
	s.Subscribe(ObserverFunc(func(Event) { seen = s.Len() }))

	_, err := s.Create("Hello", "")
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestConcurrentMutations(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := s.Create(fmt.Sprintf("note %d", i), "")
			if err != nil {
				t.Error(err)
				return
			}
			if i%2 == 0 {
				if err := s.Delete(n.ID); err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, s.Len())
}

func TestStoreProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newTestStore()
		title := rapid.StringN(0, 70, -1).Draw(t, "title")
		body := rapid.StringN(0, 140, -1).Draw(t, "body")

		note, err := s.Create(title, body)
		if verr := validation.Validate(title, body); verr != nil {
			if err == nil {
				t.Fatalf("create accepted invalid pair %q/%q", title, body)
			}
			if s.Len() != 0 {
				t.Fatalf("store changed after rejected create")
			}
			return
		}
		if err != nil {
			t.Fatalf("create rejected valid pair: %v", err)
		}

		list := s.List()
		if len(list) != 1 || list[0].Title != title || list[0].Body != body {
			t.Fatalf("note not retrievable: %+v", list)
		}

		newTitle := rapid.StringN(0, 70, -1).Draw(t, "newTitle")
		newBody := rapid.StringN(0, 140, -1).Draw(t, "newBody")
		updated, err := s.Update(note.ID, newTitle, newBody)
		if err == nil && !updated.CreatedAt.Equal(note.CreatedAt) {
			t.Fatalf("update changed CreatedAt")
		}
		current, _ := s.Get(note.ID)
		if !current.CreatedAt.Equal(note.CreatedAt) {
			t.Fatalf("CreatedAt drifted")
		}

		if err := s.Delete(note.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if !errors.Is(s.Delete(note.ID), ErrNotFound) {
			t.Fatalf("second delete should be ErrNotFound")
		}
		if len(s.List()) != 0 {
			t.Fatalf("deleted note still listed")
		}
	})
}
