package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
)

// Querier is satisfied by *sql.DB and *sql.Tx, so the same query runs inside
// and outside a transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Builder provides a fluent API for building SELECT statements over one
// table. Column names are checked against the table descriptor when one is
// attached; a bad column surfaces as an error from ToSQL rather than broken
// SQL from the engine.
type Builder struct {
	table   string
	desc    *schema.Table
	dialect db.Dialect

	columns    []string
	conditions []*Condition
	orderBy    []string
	limit      *int
	offset     *int

	err error
}

// New creates a builder for a table known to the schema.
func New(desc *schema.Table, dialect db.Dialect) *Builder {
	return &Builder{table: desc.Name, desc: desc, dialect: dialect}
}

// NewForTable creates a builder for a raw table name, without column
// checking. Used for tables the schema does not describe.
func NewForTable(table string, dialect db.Dialect) *Builder {
	return &Builder{table: table, dialect: dialect}
}

// Select restricts the selected columns. Default is every column.
func (b *Builder) Select(columns ...string) *Builder {
	for _, c := range columns {
		b.checkColumn(c)
	}
	b.columns = append(b.columns, columns...)
	return b
}

// Where adds an AND condition
func (b *Builder) Where(column string, op Operator, value interface{}) *Builder {
	b.checkColumn(column)
	b.conditions = append(b.conditions, &Condition{Column: column, Operator: op, Value: value})
	return b
}

// OrWhere adds an OR condition
func (b *Builder) OrWhere(column string, op Operator, value interface{}) *Builder {
	b.checkColumn(column)
	b.conditions = append(b.conditions, &Condition{Column: column, Operator: op, Value: value, Or: true})
	return b
}

// WhereIn adds a WHERE IN condition
func (b *Builder) WhereIn(column string, values []interface{}) *Builder {
	return b.Where(column, OpIn, values)
}

// WhereNull adds a WHERE IS NULL condition
func (b *Builder) WhereNull(column string) *Builder {
	return b.Where(column, OpIsNull, nil)
}

// WhereNotNull adds a WHERE IS NOT NULL condition
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.Where(column, OpIsNotNull, nil)
}

// WhereContains adds a case-insensitive substring condition. LIKE wildcards
// in the term keep their meaning, matching how astronomers grep catalogs.
func (b *Builder) WhereContains(column string, term string) *Builder {
	return b.Where(column, OpILike, "%"+term+"%")
}

// OrWhereContains adds a case-insensitive substring condition joined with OR
func (b *Builder) OrWhereContains(column string, term string) *Builder {
	return b.OrWhere(column, OpILike, "%"+term+"%")
}

// WhereBetween adds a WHERE BETWEEN condition
func (b *Builder) WhereBetween(column string, min, max interface{}) *Builder {
	return b.Where(column, OpBetween, []interface{}{min, max})
}

// OrderBy adds an ORDER BY clause
func (b *Builder) OrderBy(column string, direction string) *Builder {
	b.checkColumn(column)
	dir := strings.ToUpper(direction)
	if dir != "ASC" && dir != "DESC" {
		dir = "ASC"
	}
	b.orderBy = append(b.orderBy, fmt.Sprintf("%s %s", b.dialect.QuoteIdentifier(column), dir))
	return b
}

// OrderByAsc adds an ascending ORDER BY clause for each column
func (b *Builder) OrderByAsc(columns ...string) *Builder {
	for _, c := range columns {
		b.OrderBy(c, "ASC")
	}
	return b
}

// Limit sets the LIMIT clause
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

// Offset sets the OFFSET clause
func (b *Builder) Offset(n int) *Builder {
	b.offset = &n
	return b
}

func (b *Builder) checkColumn(column string) {
	if b.err != nil || b.desc == nil {
		return
	}
	if !b.desc.HasColumn(column) {
		b.err = fmt.Errorf("table %s has no column %s", b.table, column)
	}
}

// ToSQL generates the SQL statement and its parameter bindings.
func (b *Builder) ToSQL() (string, []interface{}, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var sb strings.Builder
	args := make([]interface{}, 0)
	paramCounter := 1

	selectList := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.QuoteIdentifier(c)
		}
		selectList = strings.Join(quoted, ", ")
	}
	fmt.Fprintf(&sb, "SELECT %s FROM %s", selectList, b.dialect.QuoteIdentifier(b.table))

	if len(b.conditions) > 0 {
		sb.WriteString(" WHERE ")
		for i, cond := range b.conditions {
			if i > 0 {
				if cond.Or {
					sb.WriteString(" OR ")
				} else {
					sb.WriteString(" AND ")
				}
			}
			condSQL, err := conditionToSQL(cond, b.dialect, &paramCounter, &args)
			if err != nil {
				return "", nil, fmt.Errorf("building condition: %w", err)
			}
			sb.WriteString(condSQL)
		}
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %s", b.dialect.Placeholder(paramCounter))
		args = append(args, *b.limit)
		paramCounter++
	}

	if b.offset != nil {
		fmt.Fprintf(&sb, " OFFSET %s", b.dialect.Placeholder(paramCounter))
		args = append(args, *b.offset)
		paramCounter++
	}

	return sb.String(), args, nil
}

// All executes the query and returns every matching row.
func (b *Builder) All(ctx context.Context, q Querier) ([]map[string]interface{}, error) {
	sqlStr, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, db.ConvertDBError(err)
	}
	defer rows.Close()

	results, _, err := db.ScanRows(rows)
	if err != nil {
		return nil, db.ConvertDBError(err)
	}
	return results, nil
}

// First executes the query and returns the first matching row, or
// ErrNotFound when nothing matches.
func (b *Builder) First(ctx context.Context, q Querier) (map[string]interface{}, error) {
	b.Limit(1)
	results, err := b.All(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, db.ErrNotFound
	}
	return results[0], nil
}

// Count executes the query with the select list replaced by COUNT(*).
func (b *Builder) Count(ctx context.Context, q Querier) (int, error) {
	saved := b.columns
	b.columns = nil
	sqlStr, args, err := b.ToSQL()
	b.columns = saved
	if err != nil {
		return 0, err
	}
	sqlStr = strings.Replace(sqlStr, "SELECT *", "SELECT COUNT(*)", 1)

	var count int
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, db.ConvertDBError(err)
	}
	return count, nil
}

// Exists reports whether any row matches.
func (b *Builder) Exists(ctx context.Context, q Querier) (bool, error) {
	count, err := b.Count(ctx, q)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
