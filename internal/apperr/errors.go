// Package apperr defines the sentinel errors shared by the data layer and the
// web handlers.
package apperr

import "errors"

var (
	ErrMissingField     = errors.New("missing field")
	ErrUsernameExists   = errors.New("username exists")
	ErrNoSuchUser       = errors.New("no such user")
	ErrBadPassword      = errors.New("bad password")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoteNotFound     = errors.New("note not found")
	ErrLinkNotFound     = errors.New("link not found")
	ErrNoteDeleted      = errors.New("note deleted")
	ErrNotOwner         = errors.New("not owner")
)
