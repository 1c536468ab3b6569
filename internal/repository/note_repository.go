package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/notes-service/internal/domain"
)

// NoteRepository defines persistence access for notes. Every read and write
// is scoped to the owning user id; a note belonging to someone else behaves
// exactly like a note that does not exist.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Note, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	DeleteForUser(ctx context.Context, id, userID string) error
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository returns a Postgres-backed implementation.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (user_id, title, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		note.UserID,
		note.Title,
		note.Content,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Note, error) {
	const query = `
        SELECT id, user_id, title, content, created_at
        FROM notes WHERE id=$1 AND user_id=$2`

	var note domain.Note
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Note, error) {
	const query = `
        SELECT id, user_id, title, content, created_at
        FROM notes WHERE user_id=$1
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Content,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}
	return notes, rows.Err()
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	const query = `
        UPDATE notes SET title=$1, content=$2
        WHERE id=$3 AND user_id=$4`

	cmd, err := r.pool.Exec(ctx, query, note.Title, note.Content, note.ID, note.UserID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *noteRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM notes WHERE id=$1 AND user_id=$2`

	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
