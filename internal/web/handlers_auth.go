package web

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"gnotes/internal/apperr"
	"gnotes/internal/hasher"
)

// Reason codes rendered back into the signup and login pages.
const (
	reasonMissingField   = "missing_field"
	reasonUsernameExists = "username_exists"
	reasonNoUser         = "no_user"
	reasonBadPass        = "bad_pass"
)

func validateCredentials(username, password string) error {
	return validation.Errors{
		"username": validation.Validate(username, validation.Required, validation.Length(1, 128)),
		"password": validation.Validate(password, validation.Required),
	}.Filter()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r.Context())
	s.views.RenderPage(w, ViewData{
		Title:           "gnotes",
		ContentTemplate: "index",
		User:            user.Name,
	})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.views.RenderPage(w, ViewData{Title: "Sign up", ContentTemplate: "signup"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")
	if err := validateCredentials(username, password); err != nil {
		s.views.RenderPage(w, ViewData{Title: "Sign up", ContentTemplate: "signup", Reason: reasonMissingField})
		return
	}

	digest, err := hasher.Hash(password, s.cfg.ModernHash)
	if err != nil {
		s.internalError(w, "hash password", err)
		return
	}
	err = s.db.CreateUser(r.Context(), username, digest)
	switch {
	case errors.Is(err, apperr.ErrUsernameExists):
		s.views.RenderPage(w, ViewData{Title: "Sign up", ContentTemplate: "signup", Reason: reasonUsernameExists})
	case err != nil:
		s.internalError(w, "create user", err)
	default:
		if err := s.sessions.signIn(w, r, username); err != nil {
			s.internalError(w, "sign in", err)
			return
		}
		http.Redirect(w, r, "/notes", http.StatusSeeOther)
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.views.RenderPage(w, ViewData{Title: "Log in", ContentTemplate: "login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")
	if err := validateCredentials(username, password); err != nil {
		s.views.RenderPage(w, ViewData{Title: "Log in", ContentTemplate: "login", Reason: reasonMissingField})
		return
	}

	user, err := s.db.GetUser(r.Context(), username)
	if errors.Is(err, apperr.ErrNoSuchUser) {
		s.views.RenderPage(w, ViewData{Title: "Log in", ContentTemplate: "login", Reason: reasonNoUser})
		return
	}
	if err != nil {
		s.internalError(w, "load user", err)
		return
	}
	if !hasher.Verify(password, user.Password) {
		s.views.RenderPage(w, ViewData{Title: "Log in", ContentTemplate: "login", Reason: reasonBadPass})
		return
	}
	if err := s.sessions.signIn(w, r, username); err != nil {
		s.internalError(w, "sign in", err)
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.signOut(w, r); err != nil {
		s.internalError(w, "sign out", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteAccountPage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	s.views.RenderPage(w, ViewData{Title: "Delete account", ContentTemplate: "delete", User: name})
}

// handleDeleteAccount removes the account only on a confirmed password match;
// a mismatch bounces the caller to the login page with the account intact.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	name, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	password := r.Form.Get("password")

	user, err := s.db.GetUser(r.Context(), name)
	if err != nil {
		s.internalError(w, "load user", err)
		return
	}
	if !hasher.Verify(password, user.Password) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := s.db.DeleteUser(r.Context(), name); err != nil {
		s.internalError(w, "delete user", err)
		return
	}
	http.Redirect(w, r, "/logout", http.StatusSeeOther)
}
