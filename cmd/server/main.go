package main

// @title           Book Catalog API
// @version         1.0
// @description     CRUD and fuzzy search over a catalog of books.

// @contact.name   Sina Niyavarzi
// @contact.email  sinaniya@gmail.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:5000
// @BasePath  /api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/config"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/db"
	docs "github.com/snnyvrz/shelfshare/apps/catalog-api/internal/docs"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/handler"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/logging"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/middleware"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/search"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const appVersion = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat())

	repo, closeStore, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ranker := search.NewRanker(search.WithThreshold(cfg.SearchThreshold))
	bookService := service.NewBookService(repo, ranker, logger)

	gin.SetMode(cfg.GinMode)

	e := gin.New()
	e.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)

	e.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
	})

	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Host = "localhost" + cfg.Addr()

	healthHandler := handler.NewHealthHandler(repo, cfg.DBDriver, startTime, appVersion)
	healthHandler.RegisterRoutes(e)

	api := e.Group("/api")
	{
		bookHandler := handler.NewBookHandler(bookService)
		bookHandler.RegisterRoutes(api)
	}

	e.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "driver", cfg.DBDriver, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openRepository connects the configured backend, prepares its schema and
// returns a close func for shutdown.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.BookRepository, func(), error) {
	if cfg.DBDriver == config.DriverMongo {
		client, err := db.ConnectMongoWithRetry(ctx, cfg, db.DefaultRetry())
		if err != nil {
			return nil, nil, err
		}

		repo := repository.NewMongoBookRepository(client, cfg.MongoDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}

		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	}

	database, err := db.ConnectWithRetry(ctx, cfg, db.DefaultRetry(), logger)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewGormBookRepository(database)
	if err := repo.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	closeFn := func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repo, closeFn, nil
}
