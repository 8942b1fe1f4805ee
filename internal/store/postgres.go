package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/querysql"
)

func init() {
	Register("postgres", func(ctx context.Context, cfg Config) (Store, error) {
		return OpenPostgres(ctx, cfg.DSN)
	})
}

// pgStore is a Store over a pgx connection pool.
type pgStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to the database named by a libpq DSN or
// postgres:// URL.
func OpenPostgres(ctx context.Context, dsn string) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, NewOpenError("postgres", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, NewOpenError("postgres", err)
	}
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) Dialect() querysql.Dialect { return querysql.Postgres{} }

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *pgStore) Exec(ctx context.Context, query string) error {
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return NewQueryError("postgres", err)
	}
	return nil
}

func (s *pgStore) Query(ctx context.Context, query string) ([]ir.Row, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, NewQueryError("postgres", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	out := []ir.Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, NewQueryError("postgres", err)
		}
		for i, v := range values {
			values[i] = pgValue(v)
		}
		out = append(out, toRow(cols, values))
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("postgres", err)
	}
	return out, nil
}

// pgValue unwraps the pgtype values that have no useful String form.
func pgValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		dv, err := val.Value()
		if err != nil {
			return nil
		}
		return dv
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return v
	}
}
