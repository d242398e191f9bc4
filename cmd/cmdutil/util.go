// Package cmdutil holds the wiring shared by the binaries.
package cmdutil

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/timeutil"
)

// LoadEnv loads a .env file when present. Missing files are fine; deployed
// environments inject variables directly.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env file")
	}
}

// EnvValue retrieves an environment variable or returns a fallback value if
// not found.
func EnvValue[T ~string](key, fallback T) T {
	if value, exists := os.LookupEnv(string(key)); exists {
		return T(value)
	}
	return fallback
}

// PointerOf returns a pointer to the given value.
func PointerOf[T any](value T) *T {
	return &value
}

func DB(dsn string) (*gorm.DB, error) {
	slog.Info("connecting to database")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time {
			return timeutil.DateTimeNow().Time
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("successfully connected to database")
	return db, nil
}

// Logger builds the JSON logger used by every binary. Timestamps are
// rendered in UTC.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				now := timeutil.DateTimeNow()
				return slog.Attr{Key: slog.TimeKey, Value: slog.StringValue(now.String())}
			}
			return attr
		},
	}))
}
