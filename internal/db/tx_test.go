package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

// setupTestDB creates an in-memory database with a test table
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	_, err = conn.Exec(`
		CREATE TABLE observations (
			id INTEGER PRIMARY KEY,
			band TEXT NOT NULL,
			magnitude REAL
		)
	`)
	if err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}

	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM observations").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestWithTransactionCommit(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	mgr := NewTxManager(conn)
	ctx := context.Background()

	err := mgr.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO observations (band, magnitude) VALUES ('WISE_W1', 13.348)")
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	if n := countRows(t, conn); n != 1 {
		t.Errorf("expected 1 row after commit, got %d", n)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	mgr := NewTxManager(conn)
	ctx := context.Background()
	boom := errors.New("boom")

	err := mgr.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO observations (band) VALUES ('WISE_W1')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	if n := countRows(t, conn); n != 0 {
		t.Errorf("expected 0 rows after rollback, got %d", n)
	}
}

func TestWithTransactionPanic(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	mgr := NewTxManager(conn)
	ctx := context.Background()

	func() {
		defer func() {
			if p := recover(); p == nil {
				t.Error("expected the panic to propagate")
			}
		}()
		_ = mgr.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO observations (band) VALUES ('WISE_W1')"); err != nil {
				return err
			}
			panic("mid-transaction panic")
		})
	}()

	if n := countRows(t, conn); n != 0 {
		t.Errorf("expected 0 rows after panic rollback, got %d", n)
	}
}
