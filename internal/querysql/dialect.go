package querysql

import (
	"fmt"
	"strings"
)

// Dialect covers the SQL differences between the supported databases.
//
// Values are interpolated into the query text, so EscapeString must make
// any string safe inside single quotes for the dialect.
type Dialect interface {
	// Name is the dialect's short name ("sqlite", "mysql", "postgres").
	Name() string

	// QuoteIdent quotes a table, column or alias name.
	QuoteIdent(name string) string

	// EscapeString escapes s for use between single quotes.
	EscapeString(s string) string

	// LikePrefix returns a condition matching expr values that start
	// with prefix.
	LikePrefix(expr, prefix string) string

	// FirstChar returns an expression for the first character of expr.
	FirstChar(expr string) string
}

// DialectFor maps a database driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "mysql":
		return MySQL{}, nil
	case "postgres", "pgx":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// likeEscaper escapes the LIKE wildcards with a backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// standardEscaper escapes for standard SQL strings, where only the quote
// is special.
var standardEscaper = strings.NewReplacer("'", "''", "\x00", "")

// SQLite is the dialect of SQLite 3.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (SQLite) EscapeString(s string) string { return standardEscaper.Replace(s) }

// LikePrefix names the escape character, which SQLite does not default.
func (d SQLite) LikePrefix(expr, prefix string) string {
	return expr + " LIKE '" + d.EscapeString(likeEscaper.Replace(prefix)) + "%' ESCAPE '\\'"
}

func (SQLite) FirstChar(expr string) string { return "substr(" + expr + ", 1, 1)" }

// MySQL is the dialect of MySQL and MariaDB.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// EscapeString escapes like mysql_real_escape_string.
func (MySQL) EscapeString(s string) string { return mysqlEscaper.Replace(s) }

func (d MySQL) LikePrefix(expr, prefix string) string {
	return expr + " LIKE '" + d.EscapeString(likeEscaper.Replace(prefix)) + "%'"
}

func (MySQL) FirstChar(expr string) string { return "LEFT(" + expr + ", 1)" }

// Postgres is the dialect of PostgreSQL with standard_conforming_strings on.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) EscapeString(s string) string { return standardEscaper.Replace(s) }

func (d Postgres) LikePrefix(expr, prefix string) string {
	return expr + " LIKE '" + d.EscapeString(likeEscaper.Replace(prefix)) + "%'"
}

func (Postgres) FirstChar(expr string) string { return "LEFT(" + expr + ", 1)" }
