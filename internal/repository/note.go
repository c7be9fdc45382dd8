package repository

import (
	"context"

	"notes-service/internal/domain"
)

// NoteRepository defines persistence operations for Note documents.
type NoteRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	GetByNameOwner(ctx context.Context, name, owner string) (*domain.Note, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.Note, error)
	ListByContributor(ctx context.Context, contributor string) ([]domain.Note, error)
	// Update applies patch to the note matched by filter and reports whether
	// a note matched.
	Update(ctx context.Context, filter domain.NoteFilter, patch domain.NotePatch) (bool, error)
	// Delete removes the note matched by filter and returns the number removed.
	Delete(ctx context.Context, filter domain.NoteFilter) (int64, error)
}
