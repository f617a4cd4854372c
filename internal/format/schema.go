package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/astrocatdb/astrocat/internal/schema"
)

// SchemaText writes a compact text description of every table: columns with
// types and constraints, foreign keys, and check rules.
func SchemaText(w io.Writer, s *schema.Schema) error {
	for i := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		formatTable(w, &s.Tables[i])
	}
	return nil
}

func formatTable(w io.Writer, t *schema.Table) {
	pkStr := ""
	if len(t.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(t.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(w, "TABLE %s%s\n", t.Name, pkStr)

	for _, col := range t.Columns {
		_, _ = fmt.Fprintf(w, "  %s\n", formatColumn(col))
	}

	if len(t.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  REFERENCES:")
		for _, fk := range t.ForeignKeys {
			_, _ = fmt.Fprintf(w, "    %s → %s.%s\n",
				strings.Join(fk.Columns, ", "),
				fk.RefTable,
				strings.Join(fk.RefColumns, ", "))
		}
	}

	if len(t.Checks) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  CHECKS:")
		for _, c := range t.Checks {
			_, _ = fmt.Fprintf(w, "    %s\n", formatCheck(c))
		}
	}
}

func formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":"}

	typeStr := col.Type.String()
	if col.Length > 0 {
		typeStr = fmt.Sprintf("%s(%d)", typeStr, col.Length)
	}
	parts = append(parts, typeStr)

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %v", col.Default))
	}

	return strings.Join(parts, " ")
}

func formatCheck(c schema.Check) string {
	var rules []string
	if c.Min != nil {
		rules = append(rules, fmt.Sprintf(">= %v", *c.Min))
	}
	if c.Max != nil {
		rules = append(rules, fmt.Sprintf("<= %v", *c.Max))
	}
	if c.Pattern != "" {
		rules = append(rules, fmt.Sprintf("matches %q", c.Pattern))
	}
	if len(c.OneOf) > 0 {
		rules = append(rules, fmt.Sprintf("one of (%s)", strings.Join(c.OneOf, "|")))
	}
	return fmt.Sprintf("%s %s", c.Column, strings.Join(rules, ", "))
}
