package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
)

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("duplicate isbn")
)

// BookRepository is the persistence boundary for books. Implementations
// return ErrNotFound for a missing id and ErrDuplicateISBN when the unique
// ISBN index rejects a write.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
