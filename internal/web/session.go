package web

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "session"

// Sessions wraps the signed cookie store carrying the logged-in username.
type Sessions struct {
	store *sessions.CookieStore
}

func newSessions(secret string) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) user(r *http.Request) string {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	name, _ := sess.Values["user"].(string)
	return name
}

func (s *Sessions) signIn(w http.ResponseWriter, r *http.Request, user string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values["user"] = user
	return sess.Save(r, w)
}

func (s *Sessions) signOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, "user")
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
