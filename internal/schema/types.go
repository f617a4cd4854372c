// Package schema defines plain-data descriptors for astronomical catalog
// databases: tables, columns, primary and foreign keys, and data-level check
// predicates. Descriptors carry no behavior beyond lookups and predicate
// evaluation; the engine reads them, it never mutates them.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ColumnType represents the portable column types understood by the toolkit.
type ColumnType int

const (
	// Text types
	TypeString ColumnType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDouble

	// Boolean
	TypeBool

	// Time types
	TypeDate
	TypeTimestamp

	// Unique identifiers
	TypeUUID

	// Spectrum reference (a URL or $ENV-relative file path)
	TypeSpectrum
)

// String returns the string representation of the column type
func (c ColumnType) String() string {
	switch c {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeUUID:
		return "uuid"
	case TypeSpectrum:
		return "spectrum"
	default:
		return "unknown"
	}
}

// ParseColumnType converts a string to a ColumnType
func ParseColumnType(s string) (ColumnType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "double":
		return TypeDouble, nil
	case "bool":
		return TypeBool, nil
	case "date":
		return TypeDate, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "uuid":
		return TypeUUID, nil
	case "spectrum":
		return TypeSpectrum, nil
	default:
		return 0, fmt.Errorf("unknown column type: %s", s)
	}
}

// IsText returns true if the type stores character data
func (c ColumnType) IsText() bool {
	return c == TypeString || c == TypeText || c == TypeSpectrum
}

// IsNumeric returns true if the type is a numeric type
func (c ColumnType) IsNumeric() bool {
	return c == TypeInt || c == TypeBigInt || c == TypeFloat || c == TypeDouble
}

// IsTemporal returns true if the type stores dates or timestamps
func (c ColumnType) IsTemporal() bool {
	return c == TypeDate || c == TypeTimestamp
}

// ReferentialAction represents ON DELETE behavior for foreign keys
type ReferentialAction int

const (
	ActionRestrict ReferentialAction = iota
	ActionCascade
	ActionSetNull
	ActionNoAction
)

// String returns the string representation of the referential action
func (a ReferentialAction) String() string {
	switch a {
	case ActionRestrict:
		return "restrict"
	case ActionCascade:
		return "cascade"
	case ActionSetNull:
		return "set_null"
	case ActionNoAction:
		return "no_action"
	default:
		return "unknown"
	}
}

// ParseReferentialAction converts a string to a ReferentialAction
func ParseReferentialAction(s string) (ReferentialAction, error) {
	switch s {
	case "restrict", "":
		return ActionRestrict, nil
	case "cascade":
		return ActionCascade, nil
	case "set_null":
		return ActionSetNull, nil
	case "no_action":
		return ActionNoAction, nil
	default:
		return 0, fmt.Errorf("unknown referential action: %s", s)
	}
}

// Column describes a single table column.
type Column struct {
	Name     string
	Type     ColumnType
	Length   int // for string(N); 0 means unbounded
	Nullable bool
	Default  interface{}
}

// ForeignKey describes a (possibly composite) foreign key constraint.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   ReferentialAction
}

// Check is a data-level predicate evaluated before a row is inserted.
// All set fields must hold; unset fields are ignored.
type Check struct {
	Column  string
	Min     *float64
	Max     *float64
	Pattern string
	OneOf   []string
}

// Evaluate applies the predicate to a candidate value. Null values pass;
// nullability is the column's concern, not the check's.
func (c *Check) Evaluate(value interface{}) error {
	if value == nil {
		return nil
	}
	if c.Min != nil || c.Max != nil {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("column %s: value %v is not numeric", c.Column, value)
		}
		if c.Min != nil && f < *c.Min {
			return fmt.Errorf("column %s: value %v below minimum %v", c.Column, value, *c.Min)
		}
		if c.Max != nil && f > *c.Max {
			return fmt.Errorf("column %s: value %v above maximum %v", c.Column, value, *c.Max)
		}
	}
	if c.Pattern != "" {
		s := fmt.Sprint(value)
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return fmt.Errorf("column %s: invalid pattern %q: %w", c.Column, c.Pattern, err)
		}
		if !re.MatchString(s) {
			return fmt.Errorf("column %s: value %q does not match pattern %q", c.Column, s, c.Pattern)
		}
	}
	if len(c.OneOf) > 0 {
		s := fmt.Sprint(value)
		found := false
		for _, allowed := range c.OneOf {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("column %s: value %q not in allowed set %v", c.Column, s, c.OneOf)
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Table describes one database table. Columns preserve declaration order,
// which is also the column order of exported documents.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Checks      []Check
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn returns true if the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ColumnNames returns the column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// StringColumns returns the names of all text-typed columns
func (t *Table) StringColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type.IsText() {
			names = append(names, c.Name)
		}
	}
	return names
}

// IsPrimaryKey returns true if the column is part of the primary key
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

// ChecksFor returns the check predicates declared for a column
func (t *Table) ChecksFor(column string) []Check {
	var out []Check
	for _, c := range t.Checks {
		if c.Column == column {
			out = append(out, c)
		}
	}
	return out
}

// Schema is the complete description of a catalog database.
type Schema struct {
	Name   string
	Tables []Table
}

// Table returns the table with the given name
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// HasTable returns true if the schema contains the named table
func (s *Schema) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// TableNames returns the table names in declaration order
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i := range s.Tables {
		names[i] = s.Tables[i].Name
	}
	return names
}

// ApplyTypeOverrides rewrites column types from a "Table.column" -> type name
// map. Entries naming unknown tables or columns are ignored; unknown type
// names are an error.
func (s *Schema) ApplyTypeOverrides(overrides map[string]string) error {
	for key, typeName := range overrides {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed type override key %q, want Table.column", key)
		}
		ct, err := ParseColumnType(typeName)
		if err != nil {
			return fmt.Errorf("type override %q: %w", key, err)
		}
		table, ok := s.Table(parts[0])
		if !ok {
			continue
		}
		col := table.Column(parts[1])
		if col == nil {
			continue
		}
		col.Type = ct
	}
	return nil
}
