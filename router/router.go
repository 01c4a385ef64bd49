package router

import (
	"net/http"
	noteHandler "notebook/internal/note"
	"notebook/internal/note/service"
	"notebook/middleware"
	"notebook/socket"
)

type Options struct {
	JWTSecret     []byte
	AllowedOrigin string
}

func Setup(svc *service.NoteService, hub *socket.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(opts.JWTSecret)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// WebSocket change feed
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, sessionID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	notes := noteHandler.NewNoteHandler(svc)

	mux.Handle("/api/notes", auth(http.HandlerFunc(notes.GetNotes)))
	mux.Handle("/api/notes/get", auth(http.HandlerFunc(notes.GetNote)))
	mux.Handle("/api/notes/create", auth(http.HandlerFunc(notes.CreateNote)))
	mux.Handle("/api/notes/update", auth(http.HandlerFunc(notes.UpdateNote)))
	mux.Handle("/api/notes/delete", auth(http.HandlerFunc(notes.DeleteNote)))
	mux.Handle("/api/notes/activity", auth(http.HandlerFunc(notes.GetActivity)))
	mux.Handle("/api/session", auth(http.HandlerFunc(notes.EndSession)))

	return middleware.CORSMiddleware(opts.AllowedOrigin)(mux)
}
