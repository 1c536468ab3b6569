package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/notes-service/internal/domain"
	"github.com/spec-kit/notes-service/internal/events"
	"github.com/spec-kit/notes-service/internal/repository"
	apperrors "github.com/spec-kit/notes-service/pkg/util"
)

// NoteService provides owner-scoped note operations.
type NoteService struct {
	notes      repository.NoteRepository
	dispatcher events.Dispatcher
}

// NewNoteService builds the service.
func NewNoteService(notes repository.NoteRepository, dispatcher events.Dispatcher) *NoteService {
	return &NoteService{notes: notes, dispatcher: dispatcher}
}

// CreateNote stores a new note for the user.
func (s *NoteService) CreateNote(ctx context.Context, userID, title, content string) (*domain.Note, error) {
	note := &domain.Note{UserID: userID, Title: title, Content: content}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}
	s.publish(ctx, events.EventNoteCreated, userID, events.NoteCreatedPayload{NoteID: note.ID, Title: note.Title})
	return note, nil
}

// ListNotes returns the user's notes, newest first.
func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}
	return notes, nil
}

// AppendToNote appends content to an existing note's body. A note owned by
// someone else is indistinguishable from a missing one.
func (s *NoteService) AppendToNote(ctx context.Context, userID, noteID, content string) (*domain.Note, error) {
	note, err := s.notes.GetByIDForUser(ctx, noteID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("note", nil)
	}
	if err != nil {
		return nil, apperrors.NewUpstreamFailure(err)
	}

	note.Content += content
	if err := s.notes.Update(ctx, note); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("note", nil)
		}
		return nil, apperrors.NewUpstreamFailure(err)
	}
	return note, nil
}

// DeleteNote removes the user's note.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if err := s.notes.DeleteForUser(ctx, noteID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("note", nil)
		}
		return apperrors.NewUpstreamFailure(err)
	}
	s.publish(ctx, events.EventNoteDeleted, userID, events.NoteDeletedPayload{NoteID: noteID})
	return nil
}

func (s *NoteService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
