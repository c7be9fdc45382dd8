package repository

import (
	"context"
	"errors"

	"notes-service/internal/domain"
)

var (
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate document")
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("document not found")
)

// UserRepository defines persistence operations for User documents.
type UserRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
