// Package store runs the assembled page queries against a database.
//
// Backends register themselves by driver name:
//
//   - "sqlite3":  SQLite through github.com/mattn/go-sqlite3 (cgo)
//   - "sqlite":   SQLite through modernc.org/sqlite (pure Go)
//   - "postgres": PostgreSQL through a pgx connection pool
//   - "mysql":    MySQL or MariaDB through github.com/go-sql-driver/mysql
//
// Every backend returns rows as ir.Row with String cells (or Null for SQL
// NULL), whatever the column types, so templates see the same text a page
// author would see in the database.
//
// # Database Configuration
//
// SQLite through go-sqlite3 is opened like this:
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// MySQL connections keep DATE and DATETIME columns as text (parseTime is
// forced off) so date formats receive "YYYY-MM-DD" strings.
package store
