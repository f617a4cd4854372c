package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/astrocatdb/astrocat/internal/db"
)

// Reflect builds descriptors by interrogating a live database, for catalogs
// created outside this toolkit. Check predicates cannot be recovered and load
// back empty; reflected defaults keep only plain literals.
func Reflect(ctx context.Context, conn *sql.DB, dialect db.Dialect) (*Schema, error) {
	switch dialect.Engine() {
	case db.EngineSQLite:
		return reflectSQLite(ctx, conn)
	case db.EnginePostgres:
		return reflectPostgres(ctx, conn)
	case db.EngineMySQL:
		return reflectMySQL(ctx, conn)
	default:
		return nil, fmt.Errorf("%w: cannot reflect engine %s", db.ErrConfiguration, dialect.Engine())
	}
}

func reflectSQLite(ctx context.Context, conn *sql.DB) (*Schema, error) {
	names, err := scanStrings(ctx, conn, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	s := &Schema{}
	for _, name := range names {
		t := Table{Name: name}

		rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLite(name)))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		type pkCol struct {
			name  string
			order int
		}
		var pks []pkCol
		for rows.Next() {
			var cid, notNull, pk int
			var colName, declType string
			var defaultValue sql.NullString
			if err := rows.Scan(&cid, &colName, &declType, &notNull, &defaultValue, &pk); err != nil {
				rows.Close()
				return nil, fmt.Errorf("table %s: %w", name, err)
			}
			ct, length := parseNativeType(declType)
			col := Column{Name: colName, Type: ct, Length: length, Nullable: notNull == 0}
			if defaultValue.Valid {
				col.Default = literalDefault(defaultValue.String)
			}
			t.Columns = append(t.Columns, col)
			if pk > 0 {
				pks = append(pks, pkCol{colName, pk})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}

		sort.Slice(pks, func(i, j int) bool { return pks[i].order < pks[j].order })
		for _, pk := range pks {
			t.PrimaryKey = append(t.PrimaryKey, pk.name)
		}

		fks, err := sqliteForeignKeys(ctx, conn, name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		t.ForeignKeys = fks

		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

// sqliteForeignKeys groups PRAGMA foreign_key_list rows by constraint id so
// composite keys come back as one ForeignKey.
func sqliteForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLite(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[int]*ForeignKey{}
	var ids []int
	for rows.Next() {
		var id, seq int
		var refTable, from, onUpdate, onDelete, match string
		var to sql.NullString
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk, ok := byID[id]
		if !ok {
			action, _ := ParseReferentialAction(strings.ToLower(strings.ReplaceAll(onDelete, " ", "_")))
			fk = &ForeignKey{RefTable: refTable, OnDelete: action}
			byID[id] = fk
			ids = append(ids, id)
		}
		fk.Columns = append(fk.Columns, from)
		if to.Valid {
			fk.RefColumns = append(fk.RefColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Ints(ids)
	out := make([]ForeignKey, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}

func reflectPostgres(ctx context.Context, conn *sql.DB) (*Schema, error) {
	var schemaName string
	if err := conn.QueryRowContext(ctx, "SELECT current_schema()").Scan(&schemaName); err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}

	names, err := scanStrings(ctx, conn, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	s := &Schema{Name: schemaName}
	for _, name := range names {
		t := Table{Name: name}

		rows, err := conn.QueryContext(ctx, `
			SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position
		`, schemaName, name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		for rows.Next() {
			var colName, dataType, nullable string
			var maxLen sql.NullInt64
			var defaultVal sql.NullString
			if err := rows.Scan(&colName, &dataType, &maxLen, &nullable, &defaultVal); err != nil {
				rows.Close()
				return nil, fmt.Errorf("table %s: %w", name, err)
			}
			ct, _ := parseNativeType(dataType)
			col := Column{Name: colName, Type: ct, Nullable: nullable == "YES"}
			if maxLen.Valid {
				col.Length = int(maxLen.Int64)
			}
			if defaultVal.Valid {
				col.Default = literalDefault(defaultVal.String)
			}
			t.Columns = append(t.Columns, col)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}

		pk, err := scanStrings(ctx, conn, `
			SELECT column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = $1 AND table_name = $2
				AND constraint_name IN (
					SELECT constraint_name
					FROM information_schema.table_constraints
					WHERE table_schema = $1 AND table_name = $2
						AND constraint_type = 'PRIMARY KEY'
				)
			ORDER BY ordinal_position
		`, schemaName, name)
		if err != nil {
			return nil, fmt.Errorf("table %s primary key: %w", name, err)
		}
		t.PrimaryKey = pk

		fks, err := groupedForeignKeys(ctx, conn, `
			SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
			JOIN information_schema.constraint_column_usage ccu
				ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY'
				AND tc.table_schema = $1 AND tc.table_name = $2
			ORDER BY tc.constraint_name, kcu.ordinal_position
		`, schemaName, name)
		if err != nil {
			return nil, fmt.Errorf("table %s foreign keys: %w", name, err)
		}
		t.ForeignKeys = fks

		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

func reflectMySQL(ctx context.Context, conn *sql.DB) (*Schema, error) {
	names, err := scanStrings(ctx, conn, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	s := &Schema{}
	for _, name := range names {
		t := Table{Name: name}

		rows, err := conn.QueryContext(ctx, `
			SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position
		`, name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		for rows.Next() {
			var colName, dataType, nullable string
			var maxLen sql.NullInt64
			var defaultVal sql.NullString
			if err := rows.Scan(&colName, &dataType, &maxLen, &nullable, &defaultVal); err != nil {
				rows.Close()
				return nil, fmt.Errorf("table %s: %w", name, err)
			}
			ct, _ := parseNativeType(dataType)
			col := Column{Name: colName, Type: ct, Nullable: nullable == "YES"}
			if maxLen.Valid {
				col.Length = int(maxLen.Int64)
			}
			if defaultVal.Valid {
				col.Default = literalDefault(defaultVal.String)
			}
			t.Columns = append(t.Columns, col)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}

		pk, err := scanStrings(ctx, conn, `
			SELECT column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
			ORDER BY ordinal_position
		`, name)
		if err != nil {
			return nil, fmt.Errorf("table %s primary key: %w", name, err)
		}
		t.PrimaryKey = pk

		fks, err := groupedForeignKeys(ctx, conn, `
			SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ?
				AND referenced_table_name IS NOT NULL
			ORDER BY constraint_name, ordinal_position
		`, name)
		if err != nil {
			return nil, fmt.Errorf("table %s foreign keys: %w", name, err)
		}
		t.ForeignKeys = fks

		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

// groupedForeignKeys collapses one row per key column into composite
// ForeignKey descriptors. The query must return
// (constraint_name, column, ref_table, ref_column) ordered by constraint
// then position.
func groupedForeignKeys(ctx context.Context, conn *sql.DB, query string, args ...interface{}) ([]ForeignKey, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ForeignKey
	var current string
	for rows.Next() {
		var constraint, column, refTable, refColumn string
		if err := rows.Scan(&constraint, &column, &refTable, &refColumn); err != nil {
			return nil, err
		}
		if len(out) == 0 || constraint != current {
			out = append(out, ForeignKey{RefTable: refTable})
			current = constraint
		}
		fk := &out[len(out)-1]
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
	return out, rows.Err()
}

func scanStrings(ctx context.Context, conn *sql.DB, query string, args ...interface{}) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// parseNativeType maps an engine's declared type back onto the portable
// types. Unrecognized types degrade to text, which round-trips anything.
func parseNativeType(declared string) (ColumnType, int) {
	name := strings.ToLower(strings.TrimSpace(declared))
	length := 0
	if i := strings.IndexByte(name, '('); i >= 0 {
		if j := strings.IndexByte(name[i:], ')'); j > 0 {
			if n, err := strconv.Atoi(strings.Split(name[i+1:i+j], ",")[0]); err == nil {
				length = n
			}
		}
		name = name[:i]
	}
	name = strings.TrimSpace(name)

	switch name {
	case "varchar", "character varying", "character", "char", "nvarchar":
		return TypeString, length
	case "text", "clob", "tinytext", "mediumtext", "longtext":
		return TypeText, 0
	case "int", "integer", "smallint", "mediumint", "tinyint":
		if name == "tinyint" && length == 1 {
			return TypeBool, 0
		}
		return TypeInt, 0
	case "bigint":
		return TypeBigInt, 0
	case "real", "float":
		return TypeFloat, 0
	case "double", "double precision", "numeric", "decimal":
		return TypeDouble, 0
	case "bool", "boolean":
		return TypeBool, 0
	case "date":
		return TypeDate, 0
	case "timestamp", "datetime", "timestamp without time zone", "timestamp with time zone":
		return TypeTimestamp, 0
	case "uuid":
		return TypeUUID, 0
	default:
		return TypeText, 0
	}
}

// literalDefault keeps plain literal defaults and discards expressions like
// nextval() or CURRENT_TIMESTAMP, which cannot travel between engines.
func literalDefault(raw string) interface{} {
	v := strings.TrimSpace(raw)
	// Strip postgres cast suffixes: 'x'::character varying
	if i := strings.Index(v, "::"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	if strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'") && len(v) >= 2 {
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	switch strings.ToUpper(v) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return nil
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
