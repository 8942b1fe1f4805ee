package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func init() {
	Register("sqlite3", func(ctx context.Context, cfg Config) (Store, error) {
		return OpenSQLite3(ctx, cfg.DSN)
	})
}

// OpenSQLite3 opens a SQLite database file with go-sqlite3.
// A missing file is created.
func OpenSQLite3(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return nil, NewOpenError("sqlite3", fmt.Errorf("DSN must not be empty"))
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, NewOpenError("sqlite3", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewOpenError("sqlite3", err)
	}

	// SQLite doesn't benefit from multiple connections for writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, NewOpenError("sqlite3", err)
	}

	return newSQLStore(db, "sqlite3")
}

// applyPragmas sets connection-level SQLite options.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}
