// Package data gives the handlers a typed view over the document store.
//
// Layout mirrors the persisted collections: a top-level "users" collection
// keyed by username, a top-level "links" collection keyed by random token, and
// one note collection per user named users/<name>/notes, keyed by note title.
package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gnotes/internal/apperr"
	"gnotes/internal/store"
)

const (
	usersCollection = "users"
	linksCollection = "links"
)

type User struct {
	Name     string
	Password string // stored digest: hex of the legacy pipeline or an argon2id PHC string
}

type Note struct {
	Title string
	Body  string
	Date  time.Time
}

type Link struct {
	ID     string
	User   string
	Note   string
	Render bool
	Public bool
}

// DB wraps a store with the record semantics of the service.
type DB struct {
	store store.Store
}

func New(st store.Store) *DB {
	return &DB{store: st}
}

func notesCollection(user string) string {
	return usersCollection + "/" + user + "/notes"
}

// GetUser loads a user record. Absence maps to apperr.ErrNoSuchUser.
func (db *DB) GetUser(ctx context.Context, name string) (User, error) {
	fields, err := db.store.Get(ctx, usersCollection, name)
	if errors.Is(err, store.ErrAbsent) {
		return User{}, apperr.ErrNoSuchUser
	}
	if err != nil {
		return User{}, err
	}
	return User{Name: name, Password: stringField(fields, "password")}, nil
}

// CreateUser stores a new user. An existing username is a conflict, not an
// overwrite.
func (db *DB) CreateUser(ctx context.Context, name, digest string) error {
	_, err := db.store.Get(ctx, usersCollection, name)
	if err == nil {
		return apperr.ErrUsernameExists
	}
	if !errors.Is(err, store.ErrAbsent) {
		return err
	}
	return db.store.Set(ctx, usersCollection, name, store.Fields{"password": digest})
}

// DeleteUser removes the user record and the user's note collection. Links
// minted by the user stay behind; they resolve to the deleted-note state like
// any other dangling link.
func (db *DB) DeleteUser(ctx context.Context, name string) error {
	notes, err := db.store.List(ctx, notesCollection(name))
	if err != nil {
		return err
	}
	for _, rec := range notes {
		if err := db.store.Delete(ctx, notesCollection(name), rec.ID); err != nil {
			return err
		}
	}
	return db.store.Delete(ctx, usersCollection, name)
}

// SaveNotes overwrites every given note with its new body and one shared
// server timestamp. The batch is applied all or nothing.
func (db *DB) SaveNotes(ctx context.Context, user string, bodies map[string]string) (time.Time, error) {
	ts := time.Now().UTC().Truncate(time.Second)
	docs := make(map[string]store.Fields, len(bodies))
	for title, body := range bodies {
		docs[title] = store.Fields{
			"body": body,
			"date": ts.Format(time.RFC3339),
		}
	}
	if err := db.store.SetAll(ctx, notesCollection(user), docs); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// ListNotes returns the user's notes sorted by title.
func (db *DB) ListNotes(ctx context.Context, user string) ([]Note, error) {
	records, err := db.store.List(ctx, notesCollection(user))
	if err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(records))
	for _, rec := range records {
		notes = append(notes, noteFromFields(rec.ID, rec.Fields))
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Title < notes[j].Title })
	return notes, nil
}

// GetNote loads a single note. Absence maps to apperr.ErrNoteNotFound.
func (db *DB) GetNote(ctx context.Context, user, title string) (Note, error) {
	fields, err := db.store.Get(ctx, notesCollection(user), title)
	if errors.Is(err, store.ErrAbsent) {
		return Note{}, apperr.ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return noteFromFields(title, fields), nil
}

// DeleteNote removes a note. Deleting an absent note reports
// apperr.ErrNoteNotFound so callers can surface the already-gone outcome.
func (db *DB) DeleteNote(ctx context.Context, user, title string) error {
	if _, err := db.store.Get(ctx, notesCollection(user), title); err != nil {
		if errors.Is(err, store.ErrAbsent) {
			return apperr.ErrNoteNotFound
		}
		return err
	}
	return db.store.Delete(ctx, notesCollection(user), title)
}

// CreateLink mints a link to an existing note. Token collisions are treated as
// impossible (128 random bits).
func (db *DB) CreateLink(ctx context.Context, user, title string, render bool) (Link, error) {
	if _, err := db.GetNote(ctx, user, title); err != nil {
		return Link{}, err
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	link := Link{ID: id, User: user, Note: title, Render: render}
	err := db.store.Set(ctx, linksCollection, id, store.Fields{
		"user":   link.User,
		"note":   link.Note,
		"render": link.Render,
		"public": link.Public,
	})
	if err != nil {
		return Link{}, err
	}
	return link, nil
}

// GetLink loads a link record. Absence maps to apperr.ErrLinkNotFound.
func (db *DB) GetLink(ctx context.Context, id string) (Link, error) {
	fields, err := db.store.Get(ctx, linksCollection, id)
	if errors.Is(err, store.ErrAbsent) {
		return Link{}, apperr.ErrLinkNotFound
	}
	if err != nil {
		return Link{}, err
	}
	return linkFromFields(id, fields), nil
}

// ResolveLink follows a link to its note. A link whose note has since been
// deleted reports apperr.ErrNoteDeleted together with the link itself, which
// is a distinct outcome from an unknown link id.
func (db *DB) ResolveLink(ctx context.Context, id string) (Link, Note, error) {
	link, err := db.GetLink(ctx, id)
	if err != nil {
		return Link{}, Note{}, err
	}
	note, err := db.GetNote(ctx, link.User, link.Note)
	if errors.Is(err, apperr.ErrNoteNotFound) {
		return link, Note{}, apperr.ErrNoteDeleted
	}
	if err != nil {
		return link, Note{}, err
	}
	return link, note, nil
}

// LinksByUser returns every link owned by the user.
func (db *DB) LinksByUser(ctx context.Context, user string) ([]Link, error) {
	records, err := db.store.Query(ctx, linksCollection, "user", user)
	if err != nil {
		return nil, err
	}
	return linksFromRecords(records), nil
}

// PublicLinks returns only links whose public flag is explicitly true.
func (db *DB) PublicLinks(ctx context.Context) ([]Link, error) {
	records, err := db.store.Query(ctx, linksCollection, "public", true)
	if err != nil {
		return nil, err
	}
	return linksFromRecords(records), nil
}

// SetLinkPublic flips the public flag. Only the owner may toggle it; a
// mismatch is apperr.ErrNotOwner, distinct from an unknown link.
func (db *DB) SetLinkPublic(ctx context.Context, owner, id string, public bool) error {
	link, err := db.GetLink(ctx, id)
	if err != nil {
		return err
	}
	if link.User != owner {
		return apperr.ErrNotOwner
	}
	return db.store.MergeSet(ctx, linksCollection, id, store.Fields{"public": public})
}

// DeleteLink removes a link after the same ownership check as SetLinkPublic.
func (db *DB) DeleteLink(ctx context.Context, owner, id string) error {
	link, err := db.GetLink(ctx, id)
	if err != nil {
		return err
	}
	if link.User != owner {
		return apperr.ErrNotOwner
	}
	return db.store.Delete(ctx, linksCollection, id)
}

func noteFromFields(title string, fields store.Fields) Note {
	note := Note{Title: title, Body: stringField(fields, "body")}
	if raw := stringField(fields, "date"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			note.Date = ts
		}
	}
	return note
}

func linkFromFields(id string, fields store.Fields) Link {
	return Link{
		ID:     id,
		User:   stringField(fields, "user"),
		Note:   stringField(fields, "note"),
		Render: boolField(fields, "render"),
		Public: boolField(fields, "public"),
	}
}

func linksFromRecords(records []store.Record) []Link {
	links := make([]Link, 0, len(records))
	for _, rec := range records {
		links = append(links, linkFromFields(rec.ID, rec.Fields))
	}
	return links
}

func stringField(fields store.Fields, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func boolField(fields store.Fields, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}

// String implements a compact debug form used in logs.
func (l Link) String() string {
	return fmt.Sprintf("link %s -> %s/%s", l.ID, l.User, l.Note)
}
