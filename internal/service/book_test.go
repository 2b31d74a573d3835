package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/search"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/validation"
)

// countingRepo records calls and lets a test replace individual methods.
type countingRepo struct {
	repository.BookRepository

	calls  map[string]int
	writes int

	createErr     error
	listErr       error
	findByISBNErr error
}

func (r *countingRepo) hit(name string) { r.calls[name]++ }

func (r *countingRepo) total() int {
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *countingRepo) Create(ctx context.Context, b *model.Book) error {
	r.hit("Create")
	r.writes++
	if r.createErr != nil {
		return r.createErr
	}
	return r.BookRepository.Create(ctx, b)
}

func (r *countingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	r.hit("FindByID")
	return r.BookRepository.FindByID(ctx, id)
}

func (r *countingRepo) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	r.hit("FindByISBN")
	if r.findByISBNErr != nil {
		return nil, r.findByISBNErr
	}
	return r.BookRepository.FindByISBN(ctx, isbn)
}

func (r *countingRepo) List(ctx context.Context) ([]model.Book, error) {
	r.hit("List")
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.BookRepository.List(ctx)
}

func (r *countingRepo) Update(ctx context.Context, b *model.Book) error {
	r.hit("Update")
	r.writes++
	return r.BookRepository.Update(ctx, b)
}

func (r *countingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.hit("Delete")
	r.writes++
	return r.BookRepository.Delete(ctx, id)
}

func newTestService(t *testing.T) (*BookService, *countingRepo) {
	t.Helper()

	dsn := "file:svc_" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	gormRepo := repository.NewGormBookRepository(db)
	require.NoError(t, gormRepo.Migrate(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := &countingRepo{BookRepository: gormRepo, calls: map[string]int{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewBookService(repo, search.NewRanker(), logger), repo
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func createInput(title, isbn string) validation.CreateBook {
	return validation.CreateBook{
		Title:         title,
		Author:        "J. R. R. Tolkien",
		PublishedYear: intPtr(1937),
		ISBN:          isbn,
		Genre:         "Fantasy",
		StockCount:    intPtr(4),
	}
}

func mustCreate(t *testing.T, svc *BookService, in validation.CreateBook) *model.Book {
	t.Helper()
	b, err := svc.CreateBook(context.Background(), in)
	require.NoError(t, err)
	return b
}

func TestCreateBook_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, createInput("The Hobbit", "978-0-261-10334-4"))
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "9780261103344", created.ISBN)

	got, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Author, got.Author)
	assert.Equal(t, created.PublishedYear, got.PublishedYear)
	assert.Equal(t, created.ISBN, got.ISBN)
	assert.Equal(t, created.Genre, got.Genre)
	assert.Equal(t, created.StockCount, got.StockCount)
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))

	for _, isbn := range []string{"9780261103344", "978-0261103344"} {
		_, err := svc.CreateBook(ctx, createInput("Another Hobbit", isbn))
		require.Error(t, err)
		assert.True(t, IsConflictError(err), "isbn %s: %v", isbn, err)
		assert.Equal(t, "ISBN 9780261103344 already exists", err.Error())
	}

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 1, repo.calls["Create"])
}

func TestCreateBook_InvalidPayloadTouchesNoStore(t *testing.T) {
	svc, repo := newTestService(t)

	tests := []struct {
		name string
		mod  func(*validation.CreateBook)
	}{
		{name: "future year", mod: func(in *validation.CreateBook) { in.PublishedYear = intPtr(time.Now().Year() + 1) }},
		{name: "negative stock", mod: func(in *validation.CreateBook) { in.StockCount = intPtr(-1) }},
		{name: "missing title", mod: func(in *validation.CreateBook) { in.Title = "" }},
		{name: "bad isbn", mod: func(in *validation.CreateBook) { in.ISBN = "9780261103345" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput("The Hobbit", "9780261103344")
			tt.mod(&in)

			_, err := svc.CreateBook(context.Background(), in)
			require.Error(t, err)
			assert.True(t, validation.IsValidationError(err))
			assert.Zero(t, repo.total())
		})
	}
}

func TestCreateBook_StoreRaceSurfacesAsConflict(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createErr = fmt.Errorf("%w: unique constraint", repository.ErrDuplicateISBN)

	_, err := svc.CreateBook(context.Background(), createInput("The Hobbit", "9780261103344"))
	assert.True(t, IsConflictError(err))
}

func TestCreateBook_StoreFailure(t *testing.T) {
	svc, repo := newTestService(t)
	boom := errors.New("connection refused")
	repo.findByISBNErr = boom

	_, err := svc.CreateBook(context.Background(), createInput("The Hobbit", "9780261103344"))

	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OpCreate, serr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, repo.writes)
}

func TestGetBook_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetBook(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestUpdateBook_NotFoundPerformsNoWrite(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.UpdateBook(context.Background(), uuid.New(), validation.UpdateBook{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Zero(t, repo.writes)
}

func TestUpdateBook_PartialKeepsOtherFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))

	updated, err := svc.UpdateBook(ctx, created.ID, validation.UpdateBook{StockCount: intPtr(0)})
	require.NoError(t, err)

	assert.Equal(t, 0, updated.StockCount)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "The Hobbit", updated.Title)
	assert.Equal(t, "J. R. R. Tolkien", updated.Author)
	assert.Equal(t, 1937, updated.PublishedYear)
	assert.Equal(t, "9780261103344", updated.ISBN)
	assert.Equal(t, "Fantasy", updated.Genre)
}

func TestUpdateBook_ISBNConflict(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	hobbit := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))
	dune := mustCreate(t, svc, createInput("Dune", "9780441013593"))
	writes := repo.writes

	_, err := svc.UpdateBook(ctx, dune.ID, validation.UpdateBook{ISBN: strPtr(hobbit.ISBN)})
	assert.True(t, IsConflictError(err))
	assert.Equal(t, writes, repo.writes)

	got, err := svc.GetBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "9780441013593", got.ISBN)
}

func TestUpdateBook_SameISBNSkipsUniquenessCheck(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	hobbit := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))
	lookups := repo.calls["FindByISBN"]

	updated, err := svc.UpdateBook(ctx, hobbit.ID, validation.UpdateBook{
		ISBN:  strPtr("978-0-261-10334-4"),
		Title: strPtr("The Hobbit, or There and Back Again"),
	})
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit, or There and Back Again", updated.Title)
	assert.Equal(t, lookups, repo.calls["FindByISBN"])
}

func TestUpdateBook_ChangeToFreeISBN(t *testing.T) {
	svc, _ := newTestService(t)

	hobbit := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))

	updated, err := svc.UpdateBook(context.Background(), hobbit.ID, validation.UpdateBook{ISBN: strPtr("0261103342")})
	require.NoError(t, err)
	assert.Equal(t, "0261103342", updated.ISBN)
}

func TestUpdateBook_Invalid(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	hobbit := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))
	writes := repo.writes

	_, err := svc.UpdateBook(ctx, hobbit.ID, validation.UpdateBook{PublishedYear: intPtr(time.Now().Year() + 1)})
	assert.True(t, validation.IsValidationError(err))

	_, err = svc.UpdateBook(ctx, hobbit.ID, validation.UpdateBook{})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.CodeNoFieldsToUpdate, verr.Code)

	assert.Equal(t, writes, repo.writes)
}

func TestDeleteBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	hobbit := mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))

	deleted, err := svc.DeleteBook(ctx, hobbit.ID)
	require.NoError(t, err)
	assert.Equal(t, hobbit.ID, deleted.ID)
	assert.Equal(t, hobbit.ISBN, deleted.ISBN)

	_, err = svc.GetBook(ctx, hobbit.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.DeleteBook(ctx, hobbit.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestSearchBooks_RanksTypos(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, createInput("The Hobbot", "0261103342"))
	mustCreate(t, svc, validation.CreateBook{
		Title:         "Dune",
		Author:        "Frank Herbert",
		PublishedYear: intPtr(1965),
		ISBN:          "9780441013593",
		Genre:         "Science Fiction",
		StockCount:    intPtr(2),
	})
	mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))

	got, err := svc.SearchBooks(ctx, "Hobbit")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "The Hobbit", got[0].Title)
	assert.Equal(t, "The Hobbot", got[1].Title)
}

func TestSearchBooks_EmptyQueryListsAll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))
	mustCreate(t, svc, createInput("Dune", "9780441013593"))

	all, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	for _, q := range []string{"", "   "} {
		got, err := svc.SearchBooks(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, all, got)
	}
}

func TestListBooks_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, createInput("The Hobbit", "9780261103344"))
	mustCreate(t, svc, createInput("Dune", "9780441013593"))

	first, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	second, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearchBooks_StoreFailure(t *testing.T) {
	svc, repo := newTestService(t)
	repo.listErr = errors.New("timeout")

	_, err := svc.SearchBooks(context.Background(), "hobbit")
	assert.True(t, IsStoreError(err))
}
