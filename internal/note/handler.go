package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"notebook/internal/note/model"
	"notebook/internal/note/service"
	"notebook/internal/note/validation"
	"notebook/middleware"
	"notebook/pkg/logger"
	"notebook/store"
	"strconv"
)

const (
	// maxBodyBytes bounds create/update payloads; a maximal title and body
	// encode to well under 1 KB.
	maxBodyBytes = 4 << 10
	// maxActivityLimit caps ?limit= on the activity endpoint.
	maxActivityLimit = 500
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)
	writeJSON(w, http.StatusOK, h.Service.ListNotes(sessionID))
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)

	note, err := h.Service.GetNote(sessionID, noteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)

	note, err := h.Service.CreateNote(sessionID, req.Title, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	var req model.UpdateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)

	note, err := h.Service.UpdateNote(sessionID, noteID, req.Title, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	noteID := r.URL.Query().Get("noteId")
	if noteID == "" {
		http.Error(w, "Missing noteId parameter", http.StatusBadRequest)
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)

	if err := h.Service.DeleteNote(sessionID, noteID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxActivityLimit {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)

	entries, err := h.Service.Activity(sessionID, limit)
	if errors.Is(err, service.ErrJournalDisabled) {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
		return
	} else if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// EndSession discards every note of the caller and disconnects its sockets.
func (h *NoteHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.Context().Value(middleware.UserIDKey).(string)
	h.Service.CloseSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a JSON request body of at most maxBodyBytes. It writes the
// error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, "Invalid request body", http.StatusBadRequest)
	return false
}

// writeError maps store and validation errors to status codes. Validation
// failures are user input, not faults, so they are only logged at debug.
func writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		logger.Sugar.Debugf("Rejected note: %v", err)
		writeJSON(w, http.StatusUnprocessableEntity, model.NewValidationErrorResponse(verr))
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	default:
		logger.Sugar.Errorf("Handler: unexpected error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}
