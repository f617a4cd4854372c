// Package values converts scalars between their database/sql representation
// and the JSON document representation, in both directions. The conversions
// are deliberately boring: the point of the exported documents is that a
// human can read them and a later import can reproduce the database.
package values

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/astrocatdb/astrocat/internal/db"
	"github.com/astrocatdb/astrocat/internal/schema"
	"github.com/astrocatdb/astrocat/internal/spectra"
)

// DateLayout is the document form of date columns.
const DateLayout = "2006-01-02"

// Normalize converts a scanned driver value into its JSON document form:
// byte slices become strings, timestamps become RFC 3339 in UTC, integers
// collapse to int64, and nil stays nil.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case float64, bool, string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// NormalizeRow converts every value of a scanned row in place.
func NormalizeRow(row map[string]interface{}) map[string]interface{} {
	for k, v := range row {
		row[k] = Normalize(v)
	}
	return row
}

// Decode converts a JSON document value back into a driver-friendly value
// for the given column. JSON numbers arrive as float64 and strings as
// string; the column descriptor decides what they must become.
func Decode(table string, col *schema.Column, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch col.Type {
	case schema.TypeInt, schema.TypeBigInt:
		return decodeInt(table, col, v)
	case schema.TypeFloat, schema.TypeDouble:
		return decodeFloat(table, col, v)
	case schema.TypeBool:
		return decodeBool(table, col, v)
	case schema.TypeDate:
		return decodeTime(table, col, v, DateLayout)
	case schema.TypeTimestamp:
		return decodeTime(table, col, v, time.RFC3339)
	case schema.TypeSpectrum:
		s, ok := v.(string)
		if !ok {
			return nil, conversionErr(table, col, v, "spectrum reference must be a string")
		}
		ref, err := spectra.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, col.Name, err)
		}
		return ref.String(), nil
	case schema.TypeUUID, schema.TypeString, schema.TypeText:
		switch s := v.(type) {
		case string:
			return s, nil
		default:
			return fmt.Sprint(v), nil
		}
	default:
		return v, nil
	}
}

func decodeInt(table string, col *schema.Column, v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return nil, conversionErr(table, col, v, "not an integer")
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, conversionErr(table, col, v, "not an integer")
		}
		return i, nil
	default:
		return nil, conversionErr(table, col, v, "not an integer")
	}
}

func decodeFloat(table string, col *schema.Column, v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, conversionErr(table, col, v, "not a number")
		}
		return f, nil
	default:
		return nil, conversionErr(table, col, v, "not a number")
	}
}

func decodeBool(table string, col *schema.Column, v interface{}) (interface{}, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, conversionErr(table, col, v, "not a boolean")
		}
		return parsed, nil
	default:
		return nil, conversionErr(table, col, v, "not a boolean")
	}
}

func decodeTime(table string, col *schema.Column, v interface{}, layout string) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, conversionErr(table, col, v, "not a "+col.Type.String())
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		// Timestamps written as bare dates still load.
		if layout == time.RFC3339 {
			if t2, err2 := time.Parse(DateLayout, s); err2 == nil {
				return t2, nil
			}
		}
		return nil, conversionErr(table, col, v, "not a "+col.Type.String())
	}
	return t, nil
}

func conversionErr(table string, col *schema.Column, v interface{}, msg string) error {
	return fmt.Errorf("%w: %s.%s: value %v: %s", db.ErrConversion, table, col.Name, v, msg)
}
