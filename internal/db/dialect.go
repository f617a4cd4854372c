package db

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Engine identifies a supported database engine.
type Engine int

const (
	EngineSQLite Engine = iota
	EnginePostgres
	EngineMySQL
)

// String returns the string representation of the engine
func (e Engine) String() string {
	switch e {
	case EngineSQLite:
		return "sqlite"
	case EnginePostgres:
		return "postgres"
	case EngineMySQL:
		return "mysql"
	default:
		return "unknown"
	}
}

// ParseEngine converts a string to an Engine
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "sqlite", "sqlite3":
		return EngineSQLite, nil
	case "postgres", "postgresql":
		return EnginePostgres, nil
	case "mysql":
		return EngineMySQL, nil
	default:
		return 0, fmt.Errorf("%w: unknown database engine: %s", ErrConfiguration, s)
	}
}

// Dialect abstracts the SQL details that differ between engines: placeholder
// syntax, identifier quoting, and case-insensitive matching.
type Dialect interface {
	Engine() Engine

	// Placeholder returns the parameter placeholder for 1-based position n.
	Placeholder(n int) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// ILike returns a case-insensitive LIKE condition for the quoted column
	// against placeholder position n.
	ILike(column string, n int) string
}

// DialectFor returns the Dialect for an engine.
func DialectFor(e Engine) Dialect {
	switch e {
	case EnginePostgres:
		return postgresDialect{}
	case EngineMySQL:
		return mysqlDialect{}
	default:
		return sqliteDialect{}
	}
}

type postgresDialect struct{}

func (postgresDialect) Engine() Engine { return EnginePostgres }

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (d postgresDialect) ILike(column string, n int) string {
	return fmt.Sprintf("%s ILIKE %s", column, d.Placeholder(n))
}

type sqliteDialect struct{}

func (sqliteDialect) Engine() Engine { return EngineSQLite }

func (sqliteDialect) Placeholder(n int) string { return "?" }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// LIKE is already case-insensitive for ASCII in SQLite; LOWER both sides so
// non-ASCII designations behave the same everywhere.
func (d sqliteDialect) ILike(column string, n int) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, d.Placeholder(n))
}

type mysqlDialect struct{}

func (mysqlDialect) Engine() Engine { return EngineMySQL }

func (mysqlDialect) Placeholder(n int) string { return "?" }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d mysqlDialect) ILike(column string, n int) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, d.Placeholder(n))
}
