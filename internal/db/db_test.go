package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/config"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/repository"
)

func TestConnectWithRetry_SQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: "file:dbtest_" + uuid.New().String() + "?mode=memory&cache=shared",
	}

	gdb, err := ConnectWithRetry(context.Background(), cfg, Retry{MaxAttempts: 1}, nil)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.NoError(t, sqlDB.Ping())
	assert.True(t, gdb.Config.TranslateError)
}

func TestConnectWithRetry_MissingRowIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: "file:dbtest_" + uuid.New().String() + "?mode=memory&cache=shared",
		LogLevel:   "warn",
	}

	gdb, err := ConnectWithRetry(context.Background(), cfg, Retry{MaxAttempts: 1}, logger)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewGormBookRepository(gdb)
	require.NoError(t, repo.Migrate(context.Background()))
	buf.Reset()

	_, err = repo.FindByISBN(context.Background(), "9780261103344")
	require.ErrorIs(t, err, repository.ErrNotFound)

	assert.Empty(t, buf.String())
}

func TestNewGormLogger_ReportsQueryErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg := &config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: "file:dbtest_" + uuid.New().String() + "?mode=memory&cache=shared",
	}

	gdb, err := ConnectWithRetry(context.Background(), cfg, Retry{MaxAttempts: 1}, logger)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.Error(t, gdb.Exec("SELECT * FROM missing_table").Error)

	assert.Contains(t, buf.String(), "missing_table")
	assert.Contains(t, buf.String(), `"component":"gorm"`)
}

func TestOpen_RejectsMongo(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: config.DriverMongo})
	assert.Error(t, err)
}

func TestAttempt_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := attempt(context.Background(), "test", Retry{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestAttempt_GivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	err := attempt(context.Background(), "test", Retry{MaxAttempts: 2, Delay: time.Millisecond}, func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestAttempt_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := attempt(ctx, "test", Retry{MaxAttempts: 5, Delay: time.Hour}, func() error {
		calls++
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
