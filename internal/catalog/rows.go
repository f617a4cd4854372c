package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/values"
)

// TableRows returns every row of a table, normalized, ordered by primary key
// so repeated exports are stable.
func (d *Database) TableRows(ctx context.Context, table string) ([]map[string]interface{}, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}

	qb := query.New(t, d.conn.Dialect())
	for _, pk := range t.PrimaryKey {
		qb.OrderByAsc(pk)
	}
	rows, err := qb.All(ctx, d.conn.DB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	for _, r := range rows {
		values.NormalizeRow(r)
	}
	return rows, nil
}

// Identities returns every identity value in the primary table, in primary
// key order.
func (d *Database) Identities(ctx context.Context) ([]string, error) {
	t, err := d.Table(d.opts.PrimaryTable)
	if err != nil {
		return nil, err
	}

	rows, err := query.New(t, d.conn.Dialect()).
		Select(d.opts.PrimaryKey).
		OrderByAsc(d.opts.PrimaryKey).
		All(ctx, d.conn.DB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.opts.PrimaryTable, err)
	}

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v := r[d.opts.PrimaryKey]
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprint(values.Normalize(v)))
	}
	return out, nil
}

// ReferenceDocument builds a document holding the full contents of one
// table. An empty table yields a document with no entries.
func (d *Database) ReferenceDocument(ctx context.Context, table string) (*Document, error) {
	t, err := d.Table(table)
	if err != nil {
		return nil, err
	}
	rows, err := d.TableRows(ctx, table)
	if err != nil {
		return nil, err
	}

	doc := NewDocument()
	if len(rows) == 0 {
		return doc, nil
	}
	order := t.ColumnNames()
	docRows := make([]*orderedmap.OrderedMap, 0, len(rows))
	for _, r := range rows {
		docRows = append(docRows, documentRow(r, order))
	}
	doc.SetRows(table, docRows)
	return doc, nil
}

// Clear deletes every row from every table, dependents before the tables
// they reference, inside one transaction.
func (d *Database) Clear(ctx context.Context) error {
	order, err := d.graph.ReverseSorted()
	if err != nil {
		return err
	}

	dialect := d.conn.Dialect()
	err = d.txm.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, name := range order {
			stmt := "DELETE FROM " + dialect.QuoteIdentifier(name)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clearing %s: %w", name, db.ConvertDBError(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.log.Debug("cleared all tables", zap.Int("tables", len(order)))
	return nil
}

// SQL runs a raw query and returns normalized rows plus the column order of
// the result set. The query travels to the engine untouched; placeholders
// follow the connection's dialect.
func (d *Database) SQL(ctx context.Context, queryStr string, args ...interface{}) ([]map[string]interface{}, []string, error) {
	rows, err := d.conn.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, nil, db.ConvertDBError(err)
	}
	defer rows.Close()

	results, columns, err := db.ScanRows(rows)
	if err != nil {
		return nil, nil, db.ConvertDBError(err)
	}
	for _, r := range results {
		values.NormalizeRow(r)
	}
	return results, columns, nil
}
