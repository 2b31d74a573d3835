package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/search"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.New().String() + "?mode=memory&cache=shared"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&model.Book{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func setupTestRouterWithService(svc BookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	bh := NewBookHandler(svc)
	bh.RegisterRoutes(r.Group(""))

	return r
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	repo := repository.NewGormBookRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewBookService(repo, search.NewRanker(), logger)
	return setupTestRouterWithService(svc)
}

func seedBook(t *testing.T, db *gorm.DB, title, author, genre, isbn string) model.Book {
	t.Helper()

	book := model.Book{
		Title:         title,
		Author:        author,
		PublishedYear: 1965,
		ISBN:          isbn,
		Genre:         genre,
		StockCount:    2,
	}

	if err := repository.NewGormBookRepository(db).Create(context.Background(), &book); err != nil {
		t.Fatalf("failed to seed book %q: %v", title, err)
	}

	return book
}
