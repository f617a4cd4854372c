package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/schema"
)

// CreateOptions tune Create.
type CreateOptions struct {
	// Drop removes existing tables before creating new ones.
	Drop bool
	// PGSchema is a Postgres schema to create and build the tables in.
	// Ignored for other engines.
	PGSchema string
	Logger   *zap.Logger
}

// Create builds every table of the schema on a connection, in dependency
// order so foreign keys always point at tables that already exist.
func Create(ctx context.Context, conn *db.Conn, s *schema.Schema, opts CreateOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.PGSchema != "" && conn.Engine() == db.EnginePostgres {
		stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s",
			conn.Dialect().QuoteIdentifier(opts.PGSchema))
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema %s: %w", opts.PGSchema, db.ConvertDBError(err))
		}
	}

	if opts.Drop {
		drops, err := schema.DropStatements(s, conn.Dialect())
		if err != nil {
			return err
		}
		for _, stmt := range drops {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("dropping tables: %w", db.ConvertDBError(err))
			}
		}
	}

	creates, err := schema.CreateStatements(s, conn.Dialect())
	if err != nil {
		return err
	}
	for _, stmt := range creates {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating tables: %w", db.ConvertDBError(err))
		}
	}

	log.Info("created catalog tables",
		zap.Int("tables", len(s.Tables)), zap.String("engine", conn.Engine().String()))
	return nil
}

// CopyOptions tune CopySchema.
type CopyOptions struct {
	// IgnoreTables are skipped entirely.
	IgnoreTables []string
	// CopyData moves rows as well as structure.
	CopyData bool
	Logger   *zap.Logger
}

// CopySchema reproduces the structure of the source connection's database on
// the destination, translating column types between engines, and optionally
// copies the rows table by table in dependency order.
func CopySchema(ctx context.Context, src, dst *db.Conn, opts CopyOptions) (*schema.Schema, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s, err := schema.Reflect(ctx, src.DB, src.Dialect())
	if err != nil {
		return nil, fmt.Errorf("reflecting source: %w", err)
	}

	ignored := map[string]bool{}
	for _, name := range opts.IgnoreTables {
		ignored[name] = true
	}
	if len(ignored) > 0 {
		kept := s.Tables[:0]
		for _, t := range s.Tables {
			if !ignored[t.Name] {
				kept = append(kept, t)
			}
		}
		s.Tables = kept
	}

	if err := Create(ctx, dst, s, CreateOptions{Logger: log}); err != nil {
		return nil, err
	}
	if !opts.CopyData {
		return s, nil
	}

	graph := schema.NewGraph(s)
	order, err := graph.Sorted()
	if err != nil {
		return nil, err
	}
	txm := db.NewTxManager(dst.DB)
	for _, name := range order {
		t, _ := s.Table(name)

		qb := query.New(t, src.Dialect())
		if len(t.PrimaryKey) > 0 {
			qb.OrderByAsc(t.PrimaryKey...)
		}
		rows, err := qb.All(ctx, src.DB)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}

		err = txm.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, row := range rows {
				stmt, args := buildInsert(dst.Dialect(), t, row)
				if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
					return fmt.Errorf("inserting into %s: %w", name, db.ConvertDBError(err))
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Debug("copied table", zap.String("table", name), zap.Int("rows", len(rows)))
	}
	return s, nil
}
