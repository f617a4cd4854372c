// Package query builds parameterized SELECT statements against catalog
// tables. Placeholder syntax and case-insensitive matching come from the
// connection's dialect, so the same builder serves SQLite, PostgreSQL, and
// MySQL.
package query

import (
	"fmt"
	"strings"

	"github.com/astrocatdb/astrocat/internal/db"
)

// Operator represents a comparison operator
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpIn
	OpNotIn
	OpLike
	OpILike
	OpIsNull
	OpIsNotNull
	OpBetween
)

// String returns the string representation of the operator
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpLike:
		return "LIKE"
	case OpILike:
		return "ILIKE"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpBetween:
		return "BETWEEN"
	default:
		return "UNKNOWN"
	}
}

// Condition represents one WHERE condition
type Condition struct {
	Column   string
	Operator Operator
	Value    interface{}
	Or       bool // true joins with OR, false with AND
}

// conditionToSQL renders a condition with dialect placeholders, appending
// bound values to args.
func conditionToSQL(cond *Condition, dialect db.Dialect, paramCounter *int, args *[]interface{}) (string, error) {
	column := dialect.QuoteIdentifier(cond.Column)

	simple := func(op string) string {
		*args = append(*args, cond.Value)
		sql := fmt.Sprintf("%s %s %s", column, op, dialect.Placeholder(*paramCounter))
		*paramCounter++
		return sql
	}

	switch cond.Operator {
	case OpEqual:
		return simple("="), nil
	case OpNotEqual:
		return simple("!="), nil
	case OpGreaterThan:
		return simple(">"), nil
	case OpGreaterThanOrEqual:
		return simple(">="), nil
	case OpLessThan:
		return simple("<"), nil
	case OpLessThanOrEqual:
		return simple("<="), nil

	case OpIn, OpNotIn:
		values, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("%s operator requires []interface{} value", cond.Operator)
		}
		if len(values) == 0 {
			// IN () matches nothing, NOT IN () matches everything.
			if cond.Operator == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			*args = append(*args, v)
			placeholders[i] = dialect.Placeholder(*paramCounter)
			*paramCounter++
		}
		op := "IN"
		if cond.Operator == OpNotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", column, op, strings.Join(placeholders, ", ")), nil

	case OpLike:
		return simple("LIKE"), nil

	case OpILike:
		*args = append(*args, cond.Value)
		sql := dialect.ILike(column, *paramCounter)
		*paramCounter++
		return sql, nil

	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", column), nil

	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", column), nil

	case OpBetween:
		values, ok := cond.Value.([]interface{})
		if !ok || len(values) != 2 {
			return "", fmt.Errorf("BETWEEN operator requires [min, max] values")
		}
		*args = append(*args, values[0], values[1])
		sql := fmt.Sprintf("%s BETWEEN %s AND %s", column,
			dialect.Placeholder(*paramCounter), dialect.Placeholder(*paramCounter+1))
		*paramCounter += 2
		return sql, nil

	default:
		return "", fmt.Errorf("unsupported operator: %v", cond.Operator)
	}
}
