package database

import (
	"strconv"
	"strings"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	quote       byte
	numbered    bool // $1, $2 instead of ?
	dateAsText  bool
	floatType   string
	intType     string
	dateType    string
	textType    string
	SingleConns bool
}

var dialects = map[string]Dialect{
	"sqlite": {quote: '"', dateAsText: true, floatType: "REAL", intType: "INTEGER", dateType: "TEXT", textType: "TEXT", SingleConns: true},
	"pgx":    {quote: '"', numbered: true, floatType: "DOUBLE PRECISION", intType: "BIGINT", dateType: "DATE", textType: "TEXT"},
	"genji":  {quote: '`', dateAsText: true, floatType: "DOUBLE", intType: "INTEGER", dateType: "TEXT", textType: "TEXT", SingleConns: true},
	"duckdb": {quote: '"', floatType: "DOUBLE", intType: "BIGINT", dateType: "DATE", textType: "VARCHAR", SingleConns: true},
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, bool) {
	d, ok := dialects[driver]
	return d, ok
}

// Quote quotes an identifier, doubling any embedded quote character.
func (d Dialect) Quote(ident string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// Placeholder returns the bind marker for the 1-based argument n.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// ColumnType maps a table column kind to the engine's type name.
func (d Dialect) ColumnType(k table.Kind) string {
	switch k {
	case table.Int:
		return d.intType
	case table.Float:
		return d.floatType
	case table.Date:
		return d.dateType
	default:
		return d.textType
	}
}

// DateAsText reports whether dates are stored as ISO text.
func (d Dialect) DateAsText() bool { return d.dateAsText }

// CreateTable builds a CREATE TABLE statement for t.
func (d Dialect) CreateTable(t table.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(d.Quote(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Quote(c.Name))
		b.WriteByte(' ')
		b.WriteString(d.ColumnType(c.Kind))
	}
	b.WriteString(")")
	return b.String()
}

// DropTable builds a DROP TABLE IF EXISTS statement.
func (d Dialect) DropTable(name string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(name)
}

// Insert builds a single-row INSERT statement for t.
func (d Dialect) Insert(t table.Table) string {
	var cols, marks strings.Builder
	for i, c := range t.Columns {
		if i > 0 {
			cols.WriteString(", ")
			marks.WriteString(", ")
		}
		cols.WriteString(d.Quote(c.Name))
		marks.WriteString(d.Placeholder(i + 1))
	}
	return "INSERT INTO " + d.Quote(t.Name) + " (" + cols.String() + ") VALUES (" + marks.String() + ")"
}

// SelectAll builds a SELECT * statement for a table.
func (d Dialect) SelectAll(name string) string {
	return "SELECT * FROM " + d.Quote(name)
}
