// Package db handles connections, dialects, transactions, row scanning, and
// the error kinds shared by every layer above it. It knows nothing about
// catalog semantics; it is the thin seam between the toolkit and database/sql.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// The four error kinds every operation reports through.
var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is returned when an insert or delete violates a
	// uniqueness, foreign-key, not-null, or check constraint
	ErrIntegrity = errors.New("integrity violation")

	// ErrConversion is returned when a value cannot be converted between
	// its database and document representations
	ErrConversion = errors.New("conversion failed")

	// ErrConfiguration is returned for invalid connection strings, schema
	// documents, or option combinations
	ErrConfiguration = errors.New("invalid configuration")
)

// ConvertDBError maps driver-specific errors onto the shared error kinds.
// Errors it does not recognize pass through unchanged.
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	// PostgreSQL (pgx): class 23 is integrity_constraint_violation.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: unique constraint: %s", ErrIntegrity, pgErr.Detail)
		case "23503":
			return fmt.Errorf("%w: foreign key constraint: %s", ErrIntegrity, pgErr.Detail)
		case "23502":
			return fmt.Errorf("%w: not-null constraint: column %s", ErrIntegrity, pgErr.ColumnName)
		case "23514":
			return fmt.Errorf("%w: check constraint: %s", ErrIntegrity, pgErr.Detail)
		}
		return err
	}

	// SQLite (mattn): constraint violations share primary code 19.
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %v", ErrIntegrity, sqliteErr)
		}
		return err
	}

	// MySQL: duplicate entry, FK failure, null column, check violation.
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1451, 1452, 1048, 3819:
			return fmt.Errorf("%w: %s", ErrIntegrity, myErr.Message)
		}
		return err
	}

	return err
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsIntegrity returns true if the error is ErrIntegrity
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsConversion returns true if the error is ErrConversion
func IsConversion(err error) bool {
	return errors.Is(err, ErrConversion)
}

// IsConfiguration returns true if the error is ErrConfiguration
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
