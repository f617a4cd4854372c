package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/query"
	"github.com/astrocatdb/astrocat/internal/schema"
	"github.com/astrocatdb/astrocat/internal/values"
)

// AddRows inserts rows into a table. Columns the table does not declare are
// dropped, UUID primary keys are generated when absent, check constraints and
// single-column foreign keys are verified up front, and every row goes in
// inside one transaction so a failure leaves nothing behind.
func (d *Database) AddRows(ctx context.Context, table string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	t, err := d.Table(table)
	if err != nil {
		return err
	}

	prepared := make([]map[string]interface{}, 0, len(rows))
	for i, row := range rows {
		record, err := d.prepareRow(t, row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", table, i, err)
		}
		prepared = append(prepared, record)
	}

	if err := d.checkForeignKeys(ctx, t, prepared); err != nil {
		return err
	}

	err = d.txm.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, record := range prepared {
			if err := d.insertRow(ctx, tx, t, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.log.Debug("added rows", zap.String("table", table), zap.Int("count", len(rows)))
	return nil
}

// prepareRow copies a row, drops columns the table does not declare, fills
// generated primary keys, and evaluates check constraints.
func (d *Database) prepareRow(t *schema.Table, row map[string]interface{}) (map[string]interface{}, error) {
	record := make(map[string]interface{}, len(row))
	for col, v := range row {
		if !t.HasColumn(col) {
			d.log.Debug("dropping unknown column",
				zap.String("table", t.Name), zap.String("column", col))
			continue
		}
		record[col] = v
	}

	for _, pk := range t.PrimaryKey {
		c := t.Column(pk)
		if c == nil || c.Type != schema.TypeUUID {
			continue
		}
		if _, ok := record[pk]; !ok {
			record[pk] = uuid.New().String()
		}
	}

	for _, check := range t.Checks {
		if err := check.Evaluate(record[check.Column]); err != nil {
			return nil, fmt.Errorf("%w: %v", db.ErrIntegrity, err)
		}
	}

	if len(record) == 0 {
		return nil, fmt.Errorf("%w: no recognized columns", db.ErrConversion)
	}
	return record, nil
}

// checkForeignKeys verifies that every referenced value exists before any
// insert runs. The database would reject the rows anyway; checking first
// turns a bare constraint error into one that names the missing values.
func (d *Database) checkForeignKeys(ctx context.Context, t *schema.Table, rows []map[string]interface{}) error {
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != 1 {
			continue
		}
		col, refCol := fk.Columns[0], fk.RefColumns[0]

		var wanted []interface{}
		seen := map[string]bool{}
		for _, row := range rows {
			v := row[col]
			if v == nil {
				continue
			}
			key := fmt.Sprint(values.Normalize(v))
			if !seen[key] {
				seen[key] = true
				wanted = append(wanted, v)
			}
		}
		if len(wanted) == 0 {
			continue
		}

		refTable, err := d.Table(fk.RefTable)
		if err != nil {
			return err
		}
		found, err := query.New(refTable, d.conn.Dialect()).
			Select(refCol).
			WhereIn(refCol, wanted).
			All(ctx, d.conn.DB)
		if err != nil {
			return fmt.Errorf("checking %s.%s against %s: %w", t.Name, col, fk.RefTable, err)
		}

		have := map[string]bool{}
		for _, r := range found {
			have[fmt.Sprint(values.Normalize(r[refCol]))] = true
		}
		var missing []string
		for _, v := range wanted {
			key := fmt.Sprint(values.Normalize(v))
			if !have[key] {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s.%s references %s values not present in %s: %s",
				db.ErrIntegrity, t.Name, col, refCol, fk.RefTable, strings.Join(missing, ", "))
		}
	}
	return nil
}

// InsertTx inserts rows within a caller-managed transaction. Unlike AddRows
// it performs no key generation or constraint pre-checks; violations surface
// as integrity errors from the engine and abort the caller's transaction.
func (d *Database) InsertTx(ctx context.Context, tx *sql.Tx, table string, rows []map[string]interface{}) error {
	t, err := d.Table(table)
	if err != nil {
		return err
	}
	for _, record := range rows {
		if err := d.insertRow(ctx, tx, t, record); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) insertRow(ctx context.Context, tx *sql.Tx, t *schema.Table, record map[string]interface{}) error {
	stmt, args := buildInsert(d.conn.Dialect(), t, record)
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("inserting into %s: %w", t.Name, db.ConvertDBError(err))
	}
	return nil
}

// buildInsert renders an INSERT for the columns the record carries, in the
// table's declared column order.
func buildInsert(dialect db.Dialect, t *schema.Table, record map[string]interface{}) (string, []interface{}) {
	var cols, placeholders []string
	var args []interface{}
	n := 1
	for _, c := range t.Columns {
		v, ok := record[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, dialect.QuoteIdentifier(c.Name))
		placeholders = append(placeholders, dialect.Placeholder(n))
		args = append(args, v)
		n++
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.QuoteIdentifier(t.Name),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))
	return stmt, args
}

// AddCSV reads a CSV file with a header row and inserts its records. Empty
// cells become NULL and every other cell is converted to the column's
// declared type before the rows reach AddRows.
func (d *Database) AddCSV(ctx context.Context, table, path string) error {
	t, err := d.Table(table)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%w: reading header of %s: %v", db.ErrConversion, path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]interface{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", db.ErrConversion, path, line, err)
		}
		row := make(map[string]interface{}, len(header))
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			col := t.Column(header[i])
			if col == nil {
				row[header[i]] = cell
				continue
			}
			if cell == "" {
				row[col.Name] = nil
				continue
			}
			v, err := values.Decode(table, col, cell)
			if err != nil {
				return fmt.Errorf("%s line %d: %w", path, line, err)
			}
			row[col.Name] = v
		}
		rows = append(rows, row)
	}

	d.log.Info("loading CSV", zap.String("table", table),
		zap.String("path", path), zap.Int("rows", len(rows)))
	return d.AddRows(ctx, table, rows)
}
