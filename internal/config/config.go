package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	GinMode  string
	TZ       string
	Port     int
	LogLevel string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string
	DBSSLMode   string
	SQLitePath  string

	MongoURI      string
	MongoDatabase string

	SearchThreshold float64
}

// Load reads the configuration from the environment. In debug mode a .env
// file in the working directory is loaded first; variables already set in
// the environment win.
func Load() (*Config, error) {
	if getenv("GIN_MODE", "debug") == "debug" {
		if err := godotenv.Load(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("could not load .env", "error", err)
			}
		} else {
			slog.Info("loaded .env")
		}
	}

	cfg := &Config{
		GinMode:  getenv("GIN_MODE", "debug"),
		TZ:       getenv("TZ", "UTC"),
		Port:     getenvInt("PORT", 5000),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPass:      getenv("DB_PASS", ""),
		DBName:      getenv("DB_NAME", "books"),
		DBSSLMode:   os.Getenv("DB_SSLMODE"),
		SQLitePath:  getenv("SQLITE_PATH", "books.db"),

		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGO_DATABASE", "Books"),

		SearchThreshold: getenvFloat("SEARCH_THRESHOLD", 0.4),
	}

	if cfg.DBSSLMode == "" {
		if cfg.GinMode == "release" {
			cfg.DBSSLMode = "require"
		} else {
			cfg.DBSSLMode = "disable"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s, %s or %s)",
			c.DBDriver, DriverPostgres, DriverSQLite, DriverMongo)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// DSN is the connection string for the configured driver. DATABASE_URL, when
// set, is used verbatim.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}

	switch c.DBDriver {
	case DriverSQLite:
		return c.SQLitePath
	case DriverMongo:
		return c.MongoURI
	}

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost,
		c.DBUser,
		c.DBPass,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
		c.TZ,
	)
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// LogFormat picks JSON lines in release mode.
func (c *Config) LogFormat() string {
	if c.GinMode == "release" {
		return "json"
	}
	return "human"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
