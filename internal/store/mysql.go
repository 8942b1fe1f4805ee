package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

func init() {
	Register("mysql", func(ctx context.Context, cfg Config) (Store, error) {
		return OpenMySQL(ctx, cfg.DSN)
	})
}

// OpenMySQL connects to MySQL or MariaDB. The DSN uses the go-sql-driver
// format ("user:pass@tcp(host:3306)/db"). Connections use utf8mb4 and
// return dates as text.
func OpenMySQL(ctx context.Context, dsn string) (Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, NewOpenError("mysql", err)
	}
	cfg.ParseTime = false
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, NewOpenError("mysql", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, NewOpenError("mysql", err)
	}
	return newSQLStore(db, "mysql")
}
