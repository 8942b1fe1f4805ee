package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/catsite/internal/config"
	"github.com/roach88/catsite/internal/store"
)

// SiteSource is the configuration of the fixture site: cats owned by
// people living in towns, the towns read through a subquery. _1_name
// holds the first letter of name.
const SiteSource = `catsite: {
	per_page: 3
	tables: {
		cats: fields: {
			id:        1
			name:      1
			"_1_name": 1
			color:     1
			weight:    1
			owner:     "people"
			mother:    "cats"
		}
		people: fields: {
			id:   1
			name: 1
			city: "cities"
		}
		cities: {
			sql: "(SELECT id, name FROM {prefix}towns)"
			fields: {
				id:   1
				name: 1
			}
		}
	}
}
`

// seed creates and fills the fixture tables.
var seed = []string{
	`CREATE TABLE catsite_towns (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE catsite_people (id INTEGER PRIMARY KEY, name TEXT, city INTEGER)`,
	`CREATE TABLE catsite_cats (id INTEGER PRIMARY KEY, name TEXT, _1_name TEXT, color TEXT, weight INTEGER, owner INTEGER, mother INTEGER)`,
	`INSERT INTO catsite_towns VALUES (1, 'Berlin'), (2, 'Hamburg')`,
	`INSERT INTO catsite_people VALUES (1, 'Anna', 1), (2, 'Ben', 2), (3, 'Carla', NULL)`,
	`INSERT INTO catsite_cats VALUES
		(1, 'Mimi', 'M', 'grey', 4, 1, NULL),
		(2, 'Felix', 'F', 'black', 5, 1, 1),
		(3, 'Garfield', 'G', 'orange', 7, 2, NULL),
		(4, 'Fritz', 'F', 'black', 3, 3, 1),
		(5, 'Zora', 'Z', 'grey', 4, NULL, 2)`,
}

// Site parses SiteSource and sets opts over its options.
func Site(t testing.TB, opts map[string]string) *config.Site {
	t.Helper()
	s, err := config.Parse("site.cue", []byte(SiteSource))
	require.NoError(t, err)
	return s.WithOptions(opts)
}

// NewStore opens a temporary SQLite database holding the fixture tables.
// The store is closed when the test ends.
func NewStore(t testing.TB) store.Store {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{
		Driver: "sqlite3",
		DSN:    filepath.Join(t.TempDir(), "cats.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, Seed(ctx, st))
	return st
}

// Seed creates and fills the fixture tables in st.
func Seed(ctx context.Context, st store.Store) error {
	for _, stmt := range seed {
		if err := st.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seeding fixture: %w", err)
		}
	}
	return nil
}
