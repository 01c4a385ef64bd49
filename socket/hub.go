package socket

import (
	"encoding/json"
	"fmt"
	"notebook/pkg/logger"
	"notebook/store"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	SnapshotType    = "SNAPSHOT"     // Full note list, sent on join or on request
	NoteCreatedType = "NOTE_CREATED" // A note was created
	NoteUpdatedType = "NOTE_UPDATED" // A note's title/body changed
	NoteDeletedType = "NOTE_DELETED" // A note was removed
)

// WSMessage is the wire envelope. Seq orders a session's note events; a
// SNAPSHOT carries the Seq it reflects, so clients drop events at or below it.
type WSMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	NoteID    string          `json:"note_id,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SnapshotSource provides the current notes of a session and the Seq of the
// last event they include.
type SnapshotSource interface {
	Snapshot(sessionID string) ([]store.Note, uint64)
}

// Hub fans note events out to every connected client of a session. Rooms are
// keyed by session id.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	Refresh    chan *Client

	mu        sync.Mutex
	snapshots SnapshotSource
	done      chan struct{}
	stopOnce  sync.Once
}

type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Refresh:    make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetSnapshotSource wires the provider of initial state. Without one, joining
// clients receive an empty snapshot.
func (h *Hub) SetSnapshotSource(src SnapshotSource) {
	h.mu.Lock()
	h.snapshots = src
	h.mu.Unlock()
}

// EventMessage converts a store event into the wire message for a session.
func EventMessage(sessionID string, e store.Event) (WSMessage, error) {
	msgType := NoteUpdatedType
	switch e.Type {
	case store.EventCreated:
		msgType = NoteCreatedType
	case store.EventDeleted:
		msgType = NoteDeletedType
	}
	payload, err := json.Marshal(e.Note)
	if err != nil {
		return WSMessage{}, fmt.Errorf("marshal note %s: %w", e.Note.ID, err)
	}
	return WSMessage{Type: msgType, SessionID: sessionID, NoteID: e.Note.ID, Seq: e.Seq, Payload: payload}, nil
}

// Publish hands a message to the hub loop. It returns without sending once
// the hub is stopped.
func (h *Hub) Publish(msg WSMessage) {
	select {
	case h.Broadcast <- msg:
	case <-h.done:
	}
}

// NotifyEvent publishes a store event for a session.
func (h *Hub) NotifyEvent(sessionID string, e store.Event) {
	msg, err := EventMessage(sessionID, e)
	if err != nil {
		logger.Sugar.Errorf("Error building event message: %v", err)
		return
	}
	h.Publish(msg)
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount reports how many sockets are attached to a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[sessionID])
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.SessionID] == nil {
				h.Rooms[client.SessionID] = make(map[*Client]bool)
			}
			h.Rooms[client.SessionID][client] = true
			h.mu.Unlock()

			h.sendSnapshot(client)
			logger.Sugar.Debugf("Client joined session %s", client.SessionID)

		case client := <-h.Unregister:
			h.removeClient(client)

		case client := <-h.Refresh:
			h.mu.Lock()
			_, ok := h.Rooms[client.SessionID][client]
			h.mu.Unlock()
			if ok {
				h.sendSnapshot(client)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.SessionID]))
			for client := range h.Rooms[msg.SessionID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					logger.Sugar.Warnf("Client of session %s has a full send buffer. Unregistering.", client.SessionID)
					h.removeClient(client)
					client.Conn.Close()
				}
			}

		case <-h.done:
			h.mu.Lock()
			for sessionID, clients := range h.Rooms {
				for client := range clients {
					close(client.Send)
				}
				delete(h.Rooms, sessionID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// RemoveSession disconnects every client of a session.
func (h *Hub) RemoveSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.Rooms[sessionID] {
		client.Conn.Close() // readPump exits and unregisters
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.Rooms[client.SessionID][client]; !ok {
		return
	}
	delete(h.Rooms[client.SessionID], client)
	close(client.Send)
	if len(h.Rooms[client.SessionID]) == 0 {
		delete(h.Rooms, client.SessionID)
		logger.Sugar.Debugf("Closed empty room: %s", client.SessionID)
	}
}

func (h *Hub) sendSnapshot(client *Client) {
	h.mu.Lock()
	src := h.snapshots
	h.mu.Unlock()

	var (
		notes []store.Note
		seq   uint64
	)
	if src != nil {
		notes, seq = src.Snapshot(client.SessionID)
	}
	if notes == nil {
		notes = []store.Note{}
	}
	payload, err := json.Marshal(notes)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot: %v", err)
		return
	}
	msg, err := json.Marshal(WSMessage{Type: SnapshotType, SessionID: client.SessionID, Seq: seq, Payload: payload})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot message: %v", err)
		return
	}

	select {
	case client.Send <- msg:
	default:
		logger.Sugar.Warnf("Client of session %s has a full send buffer, snapshot dropped", client.SessionID)
	}
}
