package schema

import (
	"fmt"
	"strings"

	"github.com/astrocatdb/astrocat/internal/db"
)

// CreateStatements renders CREATE TABLE statements for the whole schema in
// dependency order, with foreign keys declared inline. Check predicates are
// enforced by the toolkit before insert, not by the engine, so they do not
// appear in the DDL.
func CreateStatements(s *Schema, dialect db.Dialect) ([]string, error) {
	order, err := NewGraph(s).Sorted()
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(order))
	for _, name := range order {
		t, _ := s.Table(name)
		stmts = append(stmts, createTable(t, dialect))
	}
	return stmts, nil
}

// DropStatements renders DROP TABLE IF EXISTS statements in reverse
// dependency order.
func DropStatements(s *Schema, dialect db.Dialect) ([]string, error) {
	order, err := NewGraph(s).ReverseSorted()
	if err != nil {
		return nil, err
	}

	stmts := make([]string, 0, len(order))
	for _, name := range order {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %s", dialect.QuoteIdentifier(name)))
	}
	return stmts, nil
}

func createTable(t *Table, dialect db.Dialect) string {
	var defs []string

	for _, c := range t.Columns {
		def := fmt.Sprintf("%s %s", dialect.QuoteIdentifier(c.Name), TypeName(c, dialect.Engine()))
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Default != nil {
			def += " DEFAULT " + defaultLiteral(c.Default)
		}
		defs = append(defs, def)
	}

	if len(t.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteAll(t.PrimaryKey, dialect)))
	}

	for _, fk := range t.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteAll(fk.Columns, dialect),
			dialect.QuoteIdentifier(fk.RefTable),
			quoteAll(fk.RefColumns, dialect))
		if fk.OnDelete != ActionNoAction {
			def += " ON DELETE " + strings.ToUpper(strings.ReplaceAll(fk.OnDelete.String(), "_", " "))
		}
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		dialect.QuoteIdentifier(t.Name), strings.Join(defs, ",\n    "))
}

// TypeName maps a portable column type onto the engine's native type.
func TypeName(c Column, engine db.Engine) string {
	switch c.Type {
	case TypeString:
		if c.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Length)
		}
		if engine == db.EngineMySQL {
			// MySQL VARCHAR needs a length; unbounded strings become TEXT.
			return "TEXT"
		}
		return "VARCHAR"
	case TypeText:
		return "TEXT"
	case TypeInt:
		if engine == db.EngineMySQL {
			return "INT"
		}
		return "INTEGER"
	case TypeBigInt:
		return "BIGINT"
	case TypeFloat:
		if engine == db.EngineMySQL {
			return "FLOAT"
		}
		return "REAL"
	case TypeDouble:
		switch engine {
		case db.EnginePostgres:
			return "DOUBLE PRECISION"
		case db.EngineMySQL:
			return "DOUBLE"
		default:
			return "REAL"
		}
	case TypeBool:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		if engine == db.EngineMySQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	case TypeUUID:
		switch engine {
		case db.EnginePostgres:
			return "UUID"
		case db.EngineMySQL:
			return "CHAR(36)"
		default:
			return "TEXT"
		}
	case TypeSpectrum:
		return "TEXT"
	default:
		return "TEXT"
	}
}

func quoteAll(names []string, dialect db.Dialect) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = dialect.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

func defaultLiteral(v interface{}) string {
	switch d := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(d, "'", "''") + "'"
	case bool:
		if d {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(d)
	}
}
