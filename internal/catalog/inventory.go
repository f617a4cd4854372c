package catalog

import (
	"context"
	"fmt"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/values"
)

// Inventory collects everything known about one identity into a document:
// the identity row itself, then the rows of every table reachable over
// incoming foreign-key edges, breadth-first up to the configured depth.
// Reference tables are never swept in, each table is visited once, and the
// designated foreign-key column is stripped from dependent rows (import puts
// it back). Returns ErrNotFound when the identity matches no row.
func (d *Database) Inventory(ctx context.Context, name string) (*Document, error) {
	primary, err := d.Table(d.opts.PrimaryTable)
	if err != nil {
		return nil, err
	}

	rows, err := query.New(primary, d.conn.Dialect()).
		Where(d.opts.PrimaryKey, query.OpEqual, name).
		All(ctx, d.conn.DB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", primary.Name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no %s matching %q in %s", db.ErrNotFound, d.opts.PrimaryKey, name, primary.Name)
	}

	doc := NewDocument()
	raw := map[string][]map[string]interface{}{primary.Name: rows}

	docRows := make([]*orderedmap.OrderedMap, len(rows))
	for i, r := range rows {
		docRows[i] = documentRow(values.NormalizeRow(r), primary.ColumnNames())
	}
	doc.SetRows(primary.Name, docRows)

	visited := map[string]bool{primary.Name: true}
	frontier := []string{primary.Name}

	for depth := 1; depth <= d.opts.InventoryDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, parent := range frontier {
			for _, e := range d.graph.Dependents(parent) {
				if visited[e.From] || d.IsReferenceTable(e.From) {
					continue
				}
				if len(e.FromColumns) != 1 || len(e.ToColumns) != 1 {
					d.log.Debug("inventory skips composite foreign key",
						zap.String("table", e.From), zap.String("references", e.To))
					continue
				}

				parentVals := distinctValues(raw[parent], e.ToColumns[0])
				visited[e.From] = true
				if len(parentVals) == 0 {
					continue
				}

				child, err := d.Table(e.From)
				if err != nil {
					return nil, err
				}
				qb := query.New(child, d.conn.Dialect()).WhereIn(e.FromColumns[0], parentVals)
				for _, pk := range child.PrimaryKey {
					qb.OrderByAsc(pk)
				}
				childRows, err := qb.All(ctx, d.conn.DB)
				if err != nil {
					return nil, fmt.Errorf("reading %s: %w", child.Name, err)
				}
				if len(childRows) == 0 {
					continue
				}

				raw[e.From] = childRows
				out := make([]*orderedmap.OrderedMap, len(childRows))
				for i, r := range childRows {
					out[i] = documentRow(values.NormalizeRow(r), child.ColumnNames(), d.opts.ForeignKey)
				}
				doc.SetRows(child.Name, out)
				next = append(next, e.From)
			}
		}
		frontier = next
	}

	d.log.Debug("built inventory",
		zap.String(d.opts.PrimaryKey, name), zap.Int("tables", doc.Len()))
	return doc, nil
}

// distinctValues collects the non-null values of one column across rows,
// first occurrence order.
func distinctValues(rows []map[string]interface{}, column string) []interface{} {
	seen := make(map[interface{}]bool, len(rows))
	var out []interface{}
	for _, r := range rows {
		v := r[column]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
