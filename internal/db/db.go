package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/config"
)

const (
	defaultMaxAttempts     = 10
	defaultDelayBetweenTry = 2 * time.Second
)

// Retry controls how often a connection is attempted before giving up.
type Retry struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetry() Retry {
	return Retry{MaxAttempts: defaultMaxAttempts, Delay: defaultDelayBetweenTry}
}

// Open returns the gorm dialector for a relational driver.
func Open(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("driver %q is not a gorm driver", cfg.DBDriver)
}

// ConnectWithRetry opens a gorm connection and pings it until it answers.
// SQL logging goes through logger; a nil logger uses slog.Default.
func ConnectWithRetry(ctx context.Context, cfg *config.Config, retry Retry, logger *slog.Logger) (*gorm.DB, error) {
	dialector, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(logger, cfg.LogLevel),
	}

	var db *gorm.DB
	err = attempt(ctx, cfg.DBDriver, retry, func() error {
		var openErr error
		db, openErr = gorm.Open(dialector, gormCfg)
		if openErr != nil {
			return openErr
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return dbErr
		}
		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectMongoWithRetry connects to MongoDB and pings the primary until it
// answers.
func ConnectMongoWithRetry(ctx context.Context, cfg *config.Config, retry Retry) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.DSN()))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	err = attempt(ctx, cfg.DBDriver, retry, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func attempt(ctx context.Context, driver string, retry Retry, fn func() error) error {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	var err error
	for i := 1; i <= retry.MaxAttempts; i++ {
		if err = fn(); err == nil {
			slog.Info("db connected", "driver", driver, "attempt", i)
			return nil
		}

		slog.Warn("db not ready", "driver", driver, "attempt", i, "max_attempts", retry.MaxAttempts, "error", err)
		if i == retry.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.Delay):
		}
	}

	return fmt.Errorf("could not connect to %s after %d attempts: %w", driver, retry.MaxAttempts, err)
}

// NewGormLogger routes gorm's query log into logger. Lookups that find no row
// are a normal outcome and are not logged.
func NewGormLogger(logger *slog.Logger, level string) gormlogger.Interface {
	if logger == nil {
		logger = slog.Default()
	}
	return gormlogger.NewSlogLogger(logger.With("component", "gorm"), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLogLevel(level),
		IgnoreRecordNotFoundError: true,
	})
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
