package catalog

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/values"
)

// SearchOptions tune SearchObject. The zero value searches the configured
// name columns fuzzily and returns rows of the primary table.
type SearchOptions struct {
	// OutputTable is the table whose rows are returned for each matched
	// identity. Defaults to the primary table.
	OutputTable string

	// Exact requires whole-value matches instead of case-insensitive
	// substring matches.
	Exact bool

	// ResolveNames asks the configured name resolver for alternate
	// identifiers and searches those too.
	ResolveNames bool

	// Tables overrides the configured table -> columns search map.
	Tables map[string][]string
}

// SearchObject finds identities whose designation matches the term in any of
// the searched name columns, then returns the matching rows of the output
// table. A term that matches nothing returns an empty result, not an error.
func (d *Database) SearchObject(ctx context.Context, term string, opts *SearchOptions) ([]map[string]interface{}, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	outputTable := opts.OutputTable
	if outputTable == "" {
		outputTable = d.opts.PrimaryTable
	}
	searchTables := opts.Tables
	if len(searchTables) == 0 {
		searchTables = d.opts.SearchColumns
	}

	terms := []string{term}
	if opts.ResolveNames {
		if d.opts.Resolver == nil {
			d.log.Warn("name resolution requested but no resolver configured")
		} else {
			alternates, err := d.opts.Resolver.AlternateIDs(ctx, term)
			if err != nil {
				d.log.Warn("name resolution failed", zap.String("name", term), zap.Error(err))
			} else {
				terms = append(terms, alternates...)
			}
		}
	}

	ids, err := d.matchIdentities(ctx, terms, searchTables, opts.Exact)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return d.rowsForIdentities(ctx, outputTable, ids)
}

// matchIdentities scans the search columns and collects the identity values
// of every matching row, deduplicated and sorted.
func (d *Database) matchIdentities(ctx context.Context, terms []string, searchTables map[string][]string, exact bool) ([]string, error) {
	idSet := map[string]bool{}

	// Iterate in schema order so query order is deterministic.
	for _, tableName := range d.schema.TableNames() {
		columns, ok := searchTables[tableName]
		if !ok {
			continue
		}
		t, err := d.Table(tableName)
		if err != nil {
			return nil, err
		}
		identityCol := d.identityColumn(tableName)
		if !t.HasColumn(identityCol) {
			d.log.Debug("search table has no identity linkage",
				zap.String("table", tableName), zap.String("column", identityCol))
			continue
		}

		qb := query.New(t, d.conn.Dialect()).Select(identityCol)
		first := true
		for _, col := range columns {
			for _, term := range terms {
				switch {
				case first && exact:
					qb.Where(col, query.OpEqual, term)
				case first:
					qb.WhereContains(col, term)
				case exact:
					qb.OrWhere(col, query.OpEqual, term)
				default:
					qb.OrWhereContains(col, term)
				}
				first = false
			}
		}
		if first {
			continue // no search columns configured for this table
		}

		rows, err := qb.All(ctx, d.conn.DB)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", tableName, err)
		}
		for _, r := range rows {
			if v := values.Normalize(r[identityCol]); v != nil {
				idSet[fmt.Sprint(v)] = true
			}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// rowsForIdentities returns the output table's rows for a set of identity
// values, ordered by the identity column.
func (d *Database) rowsForIdentities(ctx context.Context, outputTable string, ids []string) ([]map[string]interface{}, error) {
	t, err := d.Table(outputTable)
	if err != nil {
		return nil, err
	}
	identityCol := d.identityColumn(outputTable)

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := query.New(t, d.conn.Dialect()).
		WhereIn(identityCol, args).
		OrderByAsc(identityCol).
		All(ctx, d.conn.DB)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", outputTable, err)
	}
	for _, r := range rows {
		values.NormalizeRow(r)
	}
	return rows, nil
}

// identityColumn is the column linking a table's rows to identities: the
// primary key on the primary table, the designated foreign key elsewhere.
func (d *Database) identityColumn(table string) string {
	if table == d.opts.PrimaryTable {
		return d.opts.PrimaryKey
	}
	return d.opts.ForeignKey
}

// SearchString matches the term against every text column of every table and
// returns the tables that had hits. Spectrum reference columns count as text.
func (d *Database) SearchString(ctx context.Context, term string) (map[string][]map[string]interface{}, error) {
	results := make(map[string][]map[string]interface{})

	for i := range d.schema.Tables {
		t := &d.schema.Tables[i]
		columns := t.StringColumns()
		if len(columns) == 0 {
			continue
		}

		qb := query.New(t, d.conn.Dialect())
		for j, col := range columns {
			if j == 0 {
				qb.WhereContains(col, term)
			} else {
				qb.OrWhereContains(col, term)
			}
		}
		rows, err := qb.All(ctx, d.conn.DB)
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", t.Name, err)
		}
		if len(rows) == 0 {
			continue
		}
		for _, r := range rows {
			values.NormalizeRow(r)
		}
		results[t.Name] = rows
	}
	return results, nil
}
