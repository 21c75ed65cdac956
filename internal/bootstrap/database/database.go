// Package database opens the sqlite file that holds the transition history
// and the bot key-value cache.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bridgee/internal/bootstrap/config"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

// The HTTP server, both bots and the console may share one database file.
var sqlitePragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))

	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		path := sqlitePath(cfg.DSN)
		if path != "" {
			if err := ensureDirectory(logCtx, path); err != nil {
				return nil, errs.Wrap(err, "ensure sqlite directory")
			}
		}

		db, err := gorm.Open(gormsqlite.Open(withPragmas(cfg.DSN, path == "")), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, errs.Wrap(err, "open sqlite db")
		}
		if path == "" {
			// every new connection to an in-memory database starts empty
			sqlDB, err := db.DB()
			if err != nil {
				return nil, errs.Wrap(err, "get sql db")
			}
			sqlDB.SetMaxOpenConns(1)
		}

		logging.Info(logCtx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", cfg.DSN))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqlitePath returns the file behind dsn, or "" for an in-memory database.
func sqlitePath(dsn string) string {
	candidate := strings.TrimSpace(dsn)
	candidate = strings.TrimPrefix(candidate, "file:")
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	if candidate == "" || candidate == ":memory:" {
		return ""
	}
	return candidate
}

func withPragmas(dsn string, inMemory bool) string {
	pragmas := sqlitePragmas
	if inMemory {
		pragmas = pragmas[:1]
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		if strings.Contains(dsn, p) {
			continue
		}
		dsn += sep + p
		sep = "&"
	}
	return dsn
}

func ensureDirectory(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}
	logging.Debug(ctx, "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
