// Package table is the neutral tabular shape handed to sinks.
package table

import (
	"errors"
	"fmt"
	"time"
)

// ErrShape is returned when a row does not match the column set.
var ErrShape = errors.New("row does not match columns")

// Kind is the logical type of a column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Date
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// Column names one column and its kind.
type Column struct {
	Name string
	Kind Kind
}

// Table is a named, ordered set of rows. Row values are string, int, float64
// or time.Time according to the column kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Validate checks that every row has one value per column of the right type.
func (t Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%s row %d: %w: got %d values, want %d", t.Name, i+1, ErrShape, len(row), len(t.Columns))
		}
		for j, v := range row {
			if !t.Columns[j].Kind.accepts(v) {
				return fmt.Errorf("%s row %d column %s: %w: %T is not %s", t.Name, i+1, t.Columns[j].Name, ErrShape, v, t.Columns[j].Kind)
			}
		}
	}
	return nil
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (k Kind) accepts(v any) bool {
	switch v.(type) {
	case string:
		return k == String
	case int:
		return k == Int
	case float64:
		return k == Float
	case time.Time:
		return k == Date
	default:
		return false
	}
}
