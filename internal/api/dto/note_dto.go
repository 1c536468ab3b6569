package dto

import (
	"time"

	"github.com/spec-kit/notes-service/internal/domain"
)

// CreateNoteRequest payload for new notes.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateNoteRequest payload for appending to a note.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// NoteResponse is the client-visible note shape.
type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNoteResponse maps a domain note to its response shape.
func NewNoteResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
	}
}

// NewNoteListResponse maps a slice of notes.
func NewNoteListResponse(notes []*domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, NewNoteResponse(note))
	}
	return out
}
