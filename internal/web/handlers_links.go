package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"gnotes/internal/apperr"
	"gnotes/internal/data"
	"gnotes/internal/escape"
)

//go:embed demo.md
var demoMarkdown string

func (s *Server) handleMakeLink(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		s.renderError(w, "You are not logged in. Please create an account or log in to yours", "/")
		return
	}
	var req struct {
		ID     string `json:"id"`
		Render bool   `json:"render"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validation.Validate(req.ID, validation.Required); err != nil {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	link, err := s.db.CreateLink(r.Context(), user.Name, req.ID, req.Render)
	if errors.Is(err, apperr.ErrNoteNotFound) {
		s.renderError(w, "A note with that title does not exist. Make sure to save your notes before creating a link", "/notes")
		return
	}
	if err != nil {
		s.internalError(w, "create link", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": "/link/" + link.ID})
}

// handleLink resolves a share token. An unknown token is a 404; a token whose
// note has since been deleted gets its own page, not a 404.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	link, note, err := s.db.ResolveLink(r.Context(), id)
	switch {
	case errors.Is(err, apperr.ErrLinkNotFound):
		http.NotFound(w, r)
	case errors.Is(err, apperr.ErrNoteDeleted):
		s.renderError(w, "This note has been deleted", "/")
	case err != nil:
		s.internalError(w, "resolve link", err)
	default:
		body := escape.Unescape(note.Body)
		if link.Render {
			rendered, err := renderMarkdown(body)
			if err != nil {
				s.internalError(w, "render link", err)
				return
			}
			s.views.RenderPage(w, ViewData{
				Title:           note.Title,
				ContentTemplate: "render",
				RenderedHTML:    rendered,
			})
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, body)
	}
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	links, err := s.db.LinksByUser(r.Context(), name)
	if err != nil {
		s.internalError(w, "list links", err)
		return
	}
	s.views.RenderPage(w, ViewData{
		Title:           "Links",
		ContentTemplate: "links",
		User:            name,
		Links:           linkRows(links),
	})
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validation.Validate(req.Link, validation.Required); err != nil {
		http.Error(w, "link is required", http.StatusBadRequest)
		return
	}

	err := s.db.DeleteLink(r.Context(), name, req.Link)
	switch {
	case errors.Is(err, apperr.ErrLinkNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrNotOwner):
		http.Error(w, "not owner", http.StatusForbidden)
	case err != nil:
		s.internalError(w, "delete link", err)
	default:
		io.WriteString(w, "ok")
	}
}

// handlePublicLinks lists only links whose public flag was explicitly set.
func (s *Server) handlePublicLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.db.PublicLinks(r.Context())
	if err != nil {
		s.internalError(w, "list public links", err)
		return
	}
	user, _ := CurrentUser(r.Context())
	s.views.RenderPage(w, ViewData{
		Title:           "Public links",
		ContentTemplate: "public",
		User:            user.Name,
		Links:           linkRows(links),
	})
}

func (s *Server) handleSetLinkPublic(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Link   string `json:"link"`
		Public bool   `json:"public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validation.Validate(req.Link, validation.Required); err != nil {
		http.Error(w, "link is required", http.StatusBadRequest)
		return
	}

	err := s.db.SetLinkPublic(r.Context(), name, req.Link, req.Public)
	switch {
	case errors.Is(err, apperr.ErrLinkNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrNotOwner):
		http.Error(w, "not owner", http.StatusForbidden)
	case err != nil:
		s.internalError(w, "set link public", err)
	default:
		io.WriteString(w, "ok")
	}
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	rendered, err := renderMarkdown(demoMarkdown)
	if err != nil {
		s.internalError(w, "render demo", err)
		return
	}
	user, _ := CurrentUser(r.Context())
	s.views.RenderPage(w, ViewData{
		Title:           "Demo",
		ContentTemplate: "demo",
		User:            user.Name,
		RenderedHTML:    rendered,
	})
}

func linkRows(links []data.Link) []LinkRow {
	rows := make([]LinkRow, 0, len(links))
	for _, l := range links {
		rows = append(rows, LinkRow{
			ID:     l.ID,
			URL:    "/link/" + l.ID,
			Note:   l.Note,
			Owner:  l.User,
			Render: l.Render,
			Public: l.Public,
		})
	}
	return rows
}
