package service

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/notes-service/internal/domain"
)

type fakeNoteRepo struct {
	byID   map[string]domain.Note
	nextID int
	clock  time.Time
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{byID: make(map[string]domain.Note), clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.Note) error {
	r.nextID++
	r.clock = r.clock.Add(time.Minute)
	note.ID = "note-" + strconv.Itoa(r.nextID)
	note.CreatedAt = r.clock
	r.byID[note.ID] = *note
	return nil
}

func (r *fakeNoteRepo) GetByIDForUser(_ context.Context, id, userID string) (*domain.Note, error) {
	note, ok := r.byID[id]
	if !ok || note.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	copied := note
	return &copied, nil
}

func (r *fakeNoteRepo) ListByUser(_ context.Context, userID string) ([]*domain.Note, error) {
	notes := make([]*domain.Note, 0)
	for _, note := range r.byID {
		if note.UserID == userID {
			copied := note
			notes = append(notes, &copied)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note *domain.Note) error {
	existing, ok := r.byID[note.ID]
	if !ok || existing.UserID != note.UserID {
		return pgx.ErrNoRows
	}
	r.byID[note.ID] = *note
	return nil
}

func (r *fakeNoteRepo) DeleteForUser(_ context.Context, id, userID string) error {
	note, ok := r.byID[id]
	if !ok || note.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func TestNoteService_CreateAndListNewestFirst(t *testing.T) {
	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := svc.CreateNote(ctx, "user-1", title, "body"); err != nil {
			t.Fatalf("CreateNote(%q) error = %v", title, err)
		}
	}

	notes, err := svc.ListNotes(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("len = %d, want 3", len(notes))
	}
	if notes[0].Title != "third" || notes[2].Title != "first" {
		t.Errorf("order = [%s %s %s], want newest first", notes[0].Title, notes[1].Title, notes[2].Title)
	}
}

func TestNoteService_AppendToNote(t *testing.T) {
	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", "title", "hello")
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	updated, err := svc.AppendToNote(ctx, "user-1", note.ID, " world")
	if err != nil {
		t.Fatalf("AppendToNote() error = %v", err)
	}
	if updated.Content != "hello world" {
		t.Errorf("content = %q, want %q (update appends)", updated.Content, "hello world")
	}
}

func TestNoteService_OwnerScoping(t *testing.T) {
	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", "mine", "secret")
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	// Another user's operations on the note behave as if it did not exist.
	if _, err := svc.AppendToNote(ctx, "user-2", note.ID, "x"); err == nil {
		t.Error("append by non-owner succeeded")
	}
	if err := svc.DeleteNote(ctx, "user-2", note.ID); err == nil {
		t.Error("delete by non-owner succeeded")
	}

	notes, err := svc.ListNotes(ctx, "user-2")
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("non-owner sees %d notes, want 0", len(notes))
	}
}

func TestNoteService_Delete(t *testing.T) {
	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "user-1", "title", "body")
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if err := svc.DeleteNote(ctx, "user-1", note.ID); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if err := svc.DeleteNote(ctx, "user-1", note.ID); err == nil {
		t.Error("second delete succeeded, want not found")
	}
}
