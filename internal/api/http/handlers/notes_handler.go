package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notes-service/internal/api/dto"
	"github.com/spec-kit/notes-service/internal/auth"
	"github.com/spec-kit/notes-service/internal/service"
)

// NotesHandler exposes owner-scoped note CRUD.
type NotesHandler struct {
	notes *service.NoteService
}

// NewNotesHandler constructs handler.
func NewNotesHandler(noteService *service.NoteService) *NotesHandler {
	return &NotesHandler{notes: noteService}
}

// List handles GET /user/notes/all-note.
func (h *NotesHandler) List(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	notes, err := h.notes.ListNotes(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNoteListResponse(notes)})
}

// Create handles POST /user/notes/write-note.
func (h *NotesHandler) Create(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	note, err := h.notes.CreateNote(c.Context(), userID, req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewNoteResponse(note)})
}

// Update handles PUT /user/notes/update-note/:id. Submitted content is
// appended to the existing body.
func (h *NotesHandler) Update(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	note, err := h.notes.AppendToNote(c.Context(), userID, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNoteResponse(note)})
}

// Delete handles DELETE /user/notes/delete-note/:id.
func (h *NotesHandler) Delete(c *fiber.Ctx) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	if err := h.notes.DeleteNote(c.Context(), userID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Note deleted"})
}
