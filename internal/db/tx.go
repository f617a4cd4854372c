package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxManager scopes transactions to a single function call. The toolkit never
// nests transactions or tunes isolation; each document load or bulk insert is
// one begin/commit pair.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a transaction manager over a connection.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
