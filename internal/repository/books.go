package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
)

const pgUniqueViolation = "23505"

type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

// Migrate creates the books table and its unique ISBN index.
func (r *GormBookRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.Book{})
}

func (r *GormBookRepository) Create(ctx context.Context, book *model.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).
		First(&book, "id = ?", id).Error; err != nil {

		return nil, translateError(err)
	}
	return &book, nil
}

func (r *GormBookRepository) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).
		Where("isbn = ?", isbn).
		Take(&book).Error; err != nil {

		return nil, translateError(err)
	}
	return &book, nil
}

func (r *GormBookRepository) List(ctx context.Context) ([]model.Book, error) {
	books := make([]model.Book, 0)
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&books).Error; err != nil {

		return nil, err
	}
	return books, nil
}

func (r *GormBookRepository) Update(ctx context.Context, book *model.Book) error {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"title":          book.Title,
			"author":         book.Author,
			"published_year": book.PublishedYear,
			"isbn":           book.ISBN,
			"genre":          book.Genre,
			"stock_count":    book.StockCount,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Book{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateISBN, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateISBN, pgErr.ConstraintName)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrDuplicateISBN, liteErr)
	}
	return err
}
