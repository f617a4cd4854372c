// Package format renders query results and schema descriptions for the CLI.
package format

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// Format selects an output rendering.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable:
		return FormatTable, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (table, markdown, csv, json)", s)
	}
}

// RowWriter renders a result set.
type RowWriter interface {
	WriteRows(columns []string, rows []map[string]interface{}) error
}

// NewWriter returns the RowWriter for a format.
func NewWriter(f Format, w io.Writer) RowWriter {
	switch f {
	case FormatMarkdown:
		return &markdownWriter{w: w}
	case FormatCSV:
		return &csvWriter{w: w}
	case FormatJSON:
		return &jsonWriter{w: w}
	default:
		return &tableWriter{w: w}
	}
}

// tableWriter prints an aligned text table.
type tableWriter struct {
	w io.Writer
}

func (t *tableWriter) WriteRows(columns []string, rows []map[string]interface{}) error {
	tw := tabwriter.NewWriter(t.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(columns, "\t"))

	seps := make([]string, len(columns))
	for i, c := range columns {
		seps[i] = strings.Repeat("-", len(c))
	}
	_, _ = fmt.Fprintln(tw, strings.Join(seps, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = cellString(row[c], "NULL")
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// markdownWriter prints a GitHub-style table.
type markdownWriter struct {
	w io.Writer
}

func (m *markdownWriter) WriteRows(columns []string, rows []map[string]interface{}) error {
	_, _ = fmt.Fprintf(m.w, "| %s |\n", strings.Join(columns, " | "))

	seps := make([]string, len(columns))
	for i := range columns {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(m.w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = strings.ReplaceAll(cellString(row[c], ""), "|", "\\|")
		}
		_, _ = fmt.Fprintf(m.w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// csvWriter prints RFC 4180 rows with a header line. Nulls become empty
// cells, the same convention AddCSV reads back.
type csvWriter struct {
	w io.Writer
}

func (c *csvWriter) WriteRows(columns []string, rows []map[string]interface{}) error {
	out := csv.NewWriter(c.w)
	if err := out.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cellString(row[col], "")
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// jsonWriter prints an indented JSON array of row objects, columns in order.
type jsonWriter struct {
	w io.Writer
}

func (j *jsonWriter) WriteRows(columns []string, rows []map[string]interface{}) error {
	out := make([]*orderedmap.OrderedMap, 0, len(rows))
	for _, row := range rows {
		om := orderedmap.New()
		for _, c := range columns {
			om.Set(c, row[c])
		}
		out = append(out, om)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = j.w.Write(data)
	return err
}

func cellString(v interface{}, null string) string {
	if v == nil {
		return null
	}
	return fmt.Sprint(v)
}
