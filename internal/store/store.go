package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/querysql"
)

// Store executes query text and returns the rows.
type Store interface {
	// Query runs one statement and returns its rows in order, keyed by
	// column name.
	Query(ctx context.Context, query string) ([]ir.Row, error)

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string) error

	// Dialect is the SQL dialect of the database.
	Dialect() querysql.Dialect

	Close() error
}

// Config selects and locates a backend.
type Config struct {
	// Driver is a registered backend name.
	Driver string

	// DSN is passed to the backend; its format is the driver's.
	DSN string
}

// Factory opens a backend.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under driver, replacing any previous
// factory. Backends call it from init.
func Register(driver string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[driver] = f
}

// Drivers lists the registered backend names, sorted.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for d := range registry {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Open opens the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Driver]
	registryMu.RUnlock()
	if !ok {
		return nil, NewUnknownDriverError(cfg.Driver)
	}
	return f(ctx, cfg)
}

// sqlStore is a Store over database/sql.
type sqlStore struct {
	db      *sql.DB
	driver  string
	dialect querysql.Dialect
}

func newSQLStore(db *sql.DB, driver string) (*sqlStore, error) {
	d, err := querysql.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &sqlStore{db: db, driver: driver, dialect: d}, nil
}

func (s *sqlStore) Dialect() querysql.Dialect { return s.dialect }

func (s *sqlStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) Exec(ctx context.Context, query string) error {
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return NewQueryError(s.driver, err)
	}
	return nil
}

func (s *sqlStore) Query(ctx context.Context, query string) ([]ir.Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewQueryError(s.driver, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, NewQueryError(s.driver, err)
	}

	out := []ir.Row{}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, NewQueryError(s.driver, err)
		}
		out = append(out, toRow(cols, values))
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError(s.driver, err)
	}
	return out, nil
}

// toRow converts driver values to a row of text cells.
func toRow(cols []string, values []any) ir.Row {
	row := make(ir.Row, len(cols))
	for i, c := range cols {
		row[c] = cell(values[i])
	}
	return row
}

// cell renders one driver value as text.
func cell(v any) ir.Value {
	switch val := v.(type) {
	case nil:
		return ir.Null{}
	case []byte:
		return ir.String(val)
	case string:
		return ir.String(val)
	case int64:
		return ir.String(strconv.FormatInt(val, 10))
	case int32:
		return ir.String(strconv.FormatInt(int64(val), 10))
	case int16:
		return ir.String(strconv.FormatInt(int64(val), 10))
	case int:
		return ir.String(strconv.Itoa(val))
	case float64:
		return ir.String(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return ir.String(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case bool:
		if val {
			return ir.String("1")
		}
		return ir.String("0")
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return ir.String(val.Format(time.DateOnly))
		}
		return ir.String(val.Format(time.DateTime))
	case fmt.Stringer:
		return ir.String(val.String())
	default:
		return ir.String(fmt.Sprint(val))
	}
}
