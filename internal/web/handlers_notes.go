package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"gnotes/internal/apperr"
	"gnotes/internal/escape"
)

// noteBody accepts the two legal payload shapes for a note value: a plain
// string, or an object wrapping the string under "body". Anything else is
// rejected instead of being unwrapped indefinitely.
type noteBody struct {
	value string
}

func (b *noteBody) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		b.value = s
		return nil
	}
	var wrapped struct {
		Body *string `json:"body"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Body != nil {
		b.value = *wrapped.Body
		return nil
	}
	return errors.New(`note body must be a string or {"body": string}`)
}

type noteJSON struct {
	Body string `json:"body"`
	Date string `json:"date"`
}

func (s *Server) handleNotesPage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	notes, err := s.db.ListNotes(r.Context(), name)
	if err != nil {
		s.internalError(w, "list notes", err)
		return
	}

	payload := make(map[string]noteJSON, len(notes))
	for _, n := range notes {
		payload[n.Title] = noteJSON{Body: n.Body, Date: n.Date.Format(time.RFC3339)}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.internalError(w, "encode notes", err)
		return
	}

	s.views.RenderPage(w, ViewData{
		Title:           "Notes",
		ContentTemplate: "notes",
		User:            name,
		Notes:           notes,
		NotesJSON:       template.JS(escape.Escape(string(raw))),
	})
}

// handleSaveNotes overwrites every posted note with one shared server
// timestamp, all or nothing.
func (s *Server) handleSaveNotes(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var payload map[string]noteBody
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	bodies := make(map[string]string, len(payload))
	for title, body := range payload {
		if strings.TrimSpace(title) == "" {
			http.Error(w, "empty note title", http.StatusBadRequest)
			return
		}
		bodies[title] = body.value
	}
	if _, err := s.db.SaveNotes(r.Context(), name, bodies); err != nil {
		s.internalError(w, "save notes", err)
		return
	}
	io.WriteString(w, "ok")
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		io.WriteString(w, "none")
		return
	}

	err := s.db.DeleteNote(r.Context(), name, req.ID)
	switch {
	case errors.Is(err, apperr.ErrNoteNotFound):
		io.WriteString(w, "gone")
	case err != nil:
		s.internalError(w, "delete note", err)
	default:
		io.WriteString(w, "ok")
	}
}
