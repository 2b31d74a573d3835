package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/search"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/validation"
)

// Store operations named in StoreError.Op.
const (
	OpCreate = "create"
	OpList   = "list"
	OpFetch  = "fetch"
	OpUpdate = "update"
	OpDelete = "delete"
)

// BookService applies the catalog rules on top of a BookRepository. It takes
// no locks: the unique ISBN index in the store settles concurrent writers and
// shows up here as a ConflictError.
type BookService struct {
	repo   repository.BookRepository
	ranker *search.Ranker
	log    *slog.Logger
}

func NewBookService(repo repository.BookRepository, ranker *search.Ranker, logger *slog.Logger) *BookService {
	if ranker == nil {
		ranker = search.NewRanker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		repo:   repo,
		ranker: ranker,
		log:    logger.With("component", "book_service"),
	}
}

func (s *BookService) CreateBook(ctx context.Context, in validation.CreateBook) (*model.Book, error) {
	s.log.DebugContext(ctx, "create book requested", "title", in.Title, "isbn", in.ISBN)

	if err := validation.ValidateCreate(&in); err != nil {
		s.log.InfoContext(ctx, "create book rejected", "error", err)
		return nil, err
	}

	if err := s.ensureISBNFree(ctx, in.ISBN, uuid.Nil, OpCreate); err != nil {
		return nil, err
	}

	book := &model.Book{
		Title:         in.Title,
		Author:        in.Author,
		PublishedYear: *in.PublishedYear,
		ISBN:          in.ISBN,
		Genre:         in.Genre,
		StockCount:    *in.StockCount,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicateISBN) {
			s.log.InfoContext(ctx, "create book lost isbn race", "isbn", book.ISBN)
			return nil, NewConflictError(book.ISBN)
		}
		return nil, s.storeError(ctx, OpCreate, err)
	}

	s.log.InfoContext(ctx, "book created", "id", book.ID, "isbn", book.ISBN)
	return book, nil
}

func (s *BookService) ListBooks(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, OpList, err)
	}

	s.log.DebugContext(ctx, "books listed", "count", len(books))
	return books, nil
}

func (s *BookService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, s.storeError(ctx, OpFetch, err)
	}
	return book, nil
}

// UpdateBook merges the supplied fields of in onto the stored book. The ISBN
// uniqueness check only runs when the ISBN actually changes.
func (s *BookService) UpdateBook(ctx context.Context, id uuid.UUID, in validation.UpdateBook) (*model.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateUpdate(&in); err != nil {
		s.log.InfoContext(ctx, "update book rejected", "id", id, "error", err)
		return nil, err
	}

	if in.ISBN != nil && *in.ISBN != book.ISBN {
		if err := s.ensureISBNFree(ctx, *in.ISBN, book.ID, OpUpdate); err != nil {
			return nil, err
		}
	}

	applyUpdate(book, in)

	if err := s.repo.Update(ctx, book); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateISBN):
			return nil, NewConflictError(book.ISBN)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrBookNotFound
		}
		return nil, s.storeError(ctx, OpUpdate, err)
	}

	updated, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "book updated", "id", id)
	return updated, nil
}

// DeleteBook removes the book and returns it as it was before removal.
func (s *BookService) DeleteBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, s.storeError(ctx, OpDelete, err)
	}

	s.log.InfoContext(ctx, "book deleted", "id", id, "isbn", book.ISBN)
	return book, nil
}

// SearchBooks ranks every stored book against query, best match first. A
// blank query lists the whole catalog instead.
func (s *BookService) SearchBooks(ctx context.Context, query string) ([]model.Book, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListBooks(ctx)
	}

	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	matches := s.ranker.Rank(query, books)
	s.log.InfoContext(ctx, "fuzzy search finished",
		"query", query,
		"candidates", len(books),
		"results", len(matches),
	)
	return search.Books(matches), nil
}

func (s *BookService) ensureISBNFree(ctx context.Context, isbn string, self uuid.UUID, op string) error {
	existing, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return s.storeError(ctx, op, err)
	}

	if existing.ID != self {
		s.log.InfoContext(ctx, "isbn already exists", "isbn", isbn, "owner", existing.ID)
		return NewConflictError(isbn)
	}
	return nil
}

func (s *BookService) storeError(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "book store failure", "op", op, "error", err)
	return NewStoreError(op, err)
}

func applyUpdate(b *model.Book, in validation.UpdateBook) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.PublishedYear != nil {
		b.PublishedYear = *in.PublishedYear
	}
	if in.ISBN != nil {
		b.ISBN = *in.ISBN
	}
	if in.Genre != nil {
		b.Genre = *in.Genre
	}
	if in.StockCount != nil {
		b.StockCount = *in.StockCount
	}
}
