package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

func init() {
	Register("sqlite", func(ctx context.Context, cfg Config) (Store, error) {
		return OpenSQLite(ctx, cfg.DSN)
	})
}

// OpenSQLite opens a SQLite database with the pure Go driver. The DSN is
// a file path or a "file:" URI.
func OpenSQLite(ctx context.Context, dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, NewOpenError("sqlite", fmt.Errorf("DSN must not be empty"))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewOpenError("sqlite", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, NewOpenError("sqlite", err)
	}

	// Ignored when the database is read-only.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return newSQLStore(db, "sqlite")
}
