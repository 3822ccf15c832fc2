package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gnotes/internal/apperr"
	"gnotes/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestUserLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetUser(ctx, "alice"); !errors.Is(err, apperr.ErrNoSuchUser) {
		t.Fatalf("expected ErrNoSuchUser, got %v", err)
	}
	if err := db.CreateUser(ctx, "alice", "digest"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := db.CreateUser(ctx, "alice", "other"); !errors.Is(err, apperr.ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
	user, err := db.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.Password != "digest" {
		t.Fatalf("unexpected digest %q", user.Password)
	}
}

func TestSaveAndListNotes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ts, err := db.SaveNotes(ctx, "alice", map[string]string{
		"Groceries": "milk, eggs",
		"Agenda":    "standup at 10",
	})
	if err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}

	notes, err := db.ListNotes(ctx, "alice")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Title != "Agenda" || notes[1].Title != "Groceries" {
		t.Fatalf("notes not sorted by title: %v", notes)
	}
	for _, n := range notes {
		if !n.Date.Equal(ts) {
			t.Fatalf("note %q must carry the shared batch timestamp, got %v want %v", n.Title, n.Date, ts)
		}
	}

	// Re-saving one note overwrites it without touching the other.
	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Groceries": "just milk"}); err != nil {
		t.Fatalf("SaveNotes again: %v", err)
	}
	note, err := db.GetNote(ctx, "alice", "Groceries")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note.Body != "just milk" {
		t.Fatalf("unexpected body %q", note.Body)
	}
	if _, err := db.GetNote(ctx, "alice", "Agenda"); err != nil {
		t.Fatalf("GetNote Agenda: %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.DeleteNote(ctx, "alice", "nope"); !errors.Is(err, apperr.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Doomed": "x"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	if err := db.DeleteNote(ctx, "alice", "Doomed"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := db.DeleteNote(ctx, "alice", "Doomed"); !errors.Is(err, apperr.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound on second delete, got %v", err)
	}
}

func TestLinkLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateLink(ctx, "alice", "missing", false); !errors.Is(err, apperr.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}

	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Shared": "hello"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	link, err := db.CreateLink(ctx, "alice", "Shared", true)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if len(link.ID) != 32 {
		t.Fatalf("expected 32-char token, got %q", link.ID)
	}
	if link.Public {
		t.Fatal("new links must start private")
	}

	got, note, err := db.ResolveLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if !got.Render || got.User != "alice" || note.Body != "hello" {
		t.Fatalf("unexpected resolution: %+v %+v", got, note)
	}

	if _, _, err := db.ResolveLink(ctx, "deadbeefdeadbeefdeadbeefdeadbeef"); !errors.Is(err, apperr.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestResolveDanglingLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Gone": "x"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	link, err := db.CreateLink(ctx, "alice", "Gone", false)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if err := db.DeleteNote(ctx, "alice", "Gone"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	got, _, err := db.ResolveLink(ctx, link.ID)
	if !errors.Is(err, apperr.ErrNoteDeleted) {
		t.Fatalf("expected ErrNoteDeleted, got %v", err)
	}
	if got.ID != link.ID {
		t.Fatal("dangling resolution must still return the link record")
	}
}

func TestLinkOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Mine": "x"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	link, err := db.CreateLink(ctx, "alice", "Mine", false)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	if err := db.SetLinkPublic(ctx, "mallory", link.ID, true); !errors.Is(err, apperr.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := db.DeleteLink(ctx, "mallory", link.ID); !errors.Is(err, apperr.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := db.GetLink(ctx, link.ID); err != nil {
		t.Fatalf("link must survive denied operations: %v", err)
	}

	if err := db.DeleteLink(ctx, "alice", link.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
	if _, err := db.GetLink(ctx, link.ID); !errors.Is(err, apperr.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound after delete, got %v", err)
	}
}

func TestPublicLinks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"A": "x", "B": "y"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	shared, err := db.CreateLink(ctx, "alice", "A", false)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	private, err := db.CreateLink(ctx, "alice", "B", false)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	public, err := db.PublicLinks(ctx)
	if err != nil {
		t.Fatalf("PublicLinks: %v", err)
	}
	if len(public) != 0 {
		t.Fatalf("fresh links must not be public: %v", public)
	}

	if err := db.SetLinkPublic(ctx, "alice", shared.ID, true); err != nil {
		t.Fatalf("SetLinkPublic: %v", err)
	}
	public, err = db.PublicLinks(ctx)
	if err != nil {
		t.Fatalf("PublicLinks: %v", err)
	}
	if len(public) != 1 || public[0].ID != shared.ID {
		t.Fatalf("expected only %s public, got %v", shared.ID, public)
	}
	_ = private

	if err := db.SetLinkPublic(ctx, "alice", shared.ID, false); err != nil {
		t.Fatalf("SetLinkPublic off: %v", err)
	}
	public, err = db.PublicLinks(ctx)
	if err != nil {
		t.Fatalf("PublicLinks: %v", err)
	}
	if len(public) != 0 {
		t.Fatalf("withdrawn link still public: %v", public)
	}
}

func TestDeleteUserKeepsLinks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, "alice", "digest"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := db.SaveNotes(ctx, "alice", map[string]string{"Note": "body"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	link, err := db.CreateLink(ctx, "alice", "Note", false)
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	if err := db.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := db.GetUser(ctx, "alice"); !errors.Is(err, apperr.ErrNoSuchUser) {
		t.Fatalf("expected ErrNoSuchUser, got %v", err)
	}
	notes, err := db.ListNotes(ctx, "alice")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("notes must be removed with the account: %v", notes)
	}
	if _, _, err := db.ResolveLink(ctx, link.ID); !errors.Is(err, apperr.ErrNoteDeleted) {
		t.Fatalf("expected ErrNoteDeleted for orphaned link, got %v", err)
	}
}
