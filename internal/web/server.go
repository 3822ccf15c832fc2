// Package web serves the note-taking UI and its JSON endpoints.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gnotes/internal/config"
	"gnotes/internal/data"
)

type Server struct {
	cfg      config.Config
	db       *data.DB
	router   chi.Router
	sessions *Sessions
	views    *Templates
}

func NewServer(cfg config.Config, db *data.DB) (*Server, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("NOTES_SECRET_KEY is required")
	}
	s := &Server{
		cfg:      cfg,
		db:       db,
		router:   chi.NewRouter(),
		sessions: newSessions(cfg.SecretKey),
		views:    MustParseTemplates(),
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.sessionMiddleware(s.router)
}

func (s *Server) routes() {
	r := s.router
	r.Get("/", s.handleIndex)
	r.Get("/signup", s.handleSignupPage)
	r.Post("/signup", s.handleSignup)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Get("/delete/account", s.handleDeleteAccountPage)
	r.Post("/delete/account", s.handleDeleteAccount)
	r.Get("/notes", s.handleNotesPage)
	r.Post("/notes", s.handleSaveNotes)
	r.Post("/delete/note", s.handleDeleteNote)
	r.Post("/makelink", s.handleMakeLink)
	r.Get("/link/{id}", s.handleLink)
	r.Get("/links", s.handleLinks)
	r.Post("/delete/link", s.handleDeleteLink)
	r.Get("/links/public", s.handlePublicLinks)
	r.Post("/links/public", s.handleSetLinkPublic)
	r.Get("/demo", s.handleDemo)
}

// sessionMiddleware resolves the cookie identity into the request context and
// keeps logged-in visitors away from the signup and login pages.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if name := s.sessions.user(r); name != "" {
			if r.URL.Path == "/signup" || r.URL.Path == "/login" {
				http.Redirect(w, r, "/notes", http.StatusSeeOther)
				return
			}
			r = r.WithContext(WithUser(r.Context(), User{Name: name, Authenticated: true}))
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser redirects anonymous callers to the login page.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}
	return user.Name, true
}

func (s *Server) renderError(w http.ResponseWriter, msg, redirect string) {
	s.views.RenderPage(w, ViewData{
		Title:           "Error",
		ContentTemplate: "error",
		Message:         msg,
		Redirect:        redirect,
	})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	slog.Error(op+" failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
