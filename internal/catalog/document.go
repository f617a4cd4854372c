package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/astrocatdb/astrocat/internal/db"
)

// Document is the JSON form of one identity or one reference table: an
// ordered mapping of table name to row objects. Both the table order and
// each row's column order are preserved, so exported files are stable and
// diff cleanly.
type Document struct {
	tables *orderedmap.OrderedMap
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{tables: orderedmap.New()}
}

// SetRows sets the rows of a table, replacing any previous entry.
func (d *Document) SetRows(table string, rows []*orderedmap.OrderedMap) {
	d.tables.Set(table, rows)
}

// Rows returns the rows of a table.
func (d *Document) Rows(table string) ([]*orderedmap.OrderedMap, bool) {
	v, ok := d.tables.Get(table)
	if !ok {
		return nil, false
	}
	rows, ok := v.([]*orderedmap.OrderedMap)
	return rows, ok
}

// Tables returns the table names in document order.
func (d *Document) Tables() []string {
	return d.tables.Keys()
}

// Len returns the number of tables in the document.
func (d *Document) Len() int {
	return len(d.tables.Keys())
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.tables)
}

// UnmarshalJSON implements json.Unmarshaler. Every top-level value must be an
// array of objects; anything else is a conversion error.
func (d *Document) UnmarshalJSON(data []byte) error {
	raw := orderedmap.New()
	if err := json.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("%w: %v", db.ErrConversion, err)
	}

	d.tables = orderedmap.New()
	for _, table := range raw.Keys() {
		v, _ := raw.Get(table)
		list, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("%w: table %s: expected an array of rows", db.ErrConversion, table)
		}
		rows := make([]*orderedmap.OrderedMap, 0, len(list))
		for i, item := range list {
			row, ok := item.(*orderedmap.OrderedMap)
			if !ok {
				return fmt.Errorf("%w: table %s row %d: expected an object", db.ErrConversion, table, i)
			}
			rows = append(rows, row)
		}
		d.tables.Set(table, rows)
	}
	return nil
}

// Encode renders the document as JSON, four-space indented when pretty.
func (d *Document) Encode(pretty bool) ([]byte, error) {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(d, "", "    ")
	} else {
		data, err = json.Marshal(d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document: %v", db.ErrConversion, err)
	}
	if pretty {
		data = append(data, '\n')
	}
	return data, nil
}

// DecodeDocument parses a JSON document. Malformed input of any kind is a
// conversion error.
func DecodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		if errors.Is(err, db.ErrConversion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", db.ErrConversion, err)
	}
	return doc, nil
}

// documentRow builds an ordered row from a scanned map, following the
// table's column order and skipping the named columns.
func documentRow(row map[string]interface{}, columnOrder []string, skip ...string) *orderedmap.OrderedMap {
	om := orderedmap.New()
	for _, col := range columnOrder {
		if contains(skip, col) {
			continue
		}
		if v, ok := row[col]; ok {
			om.Set(col, v)
		}
	}
	return om
}

// RowMap flattens an ordered row back into a plain map.
func RowMap(row *orderedmap.OrderedMap) map[string]interface{} {
	out := make(map[string]interface{}, len(row.Keys()))
	for _, k := range row.Keys() {
		v, _ := row.Get(k)
		out[k] = v
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
