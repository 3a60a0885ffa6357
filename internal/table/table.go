package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value type held by a column.
type Kind int

const (
	KindText Kind = iota
	KindFloat
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	default:
		return "text"
	}
}

// Strategy records which recovery step produced a table.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategySniffed     Strategy = "sniffed"
	StrategyRepaired    Strategy = "full-quote-repair"
	StrategySpreadsheet Strategy = "spreadsheet"
	StrategyDegenerate  Strategy = "degenerate"
)

// RawColumn is the name of the single column produced when no strategy
// recovers a multi-column table.
const RawColumn = "_raw"

// Column is a named, homogeneous, nullable sequence of values.
type Column struct {
	name  string
	kind  Kind
	text  []string
	nums  []float64
	valid []bool
}

// Name returns the normalized column name.
func (c *Column) Name() string { return c.name }

// Kind returns the value type of the column.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.valid) }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// NonNull counts rows holding a value.
func (c *Column) NonNull() int {
	n := 0
	for _, ok := range c.valid {
		if ok {
			n++
		}
	}
	return n
}

// Text returns the value at row i formatted as text. Null values are "".
func (c *Column) Text(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case KindFloat:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(int64(c.nums[i]), 10)
	default:
		return c.text[i]
	}
}

// Float returns the numeric value at row i. ok is false for null values and
// for text columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.kind == KindText || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Int returns the integer value at row i of a KindInt column.
func (c *Column) Int(i int) (v int64, ok bool) {
	if c.kind != KindInt || !c.valid[i] {
		return 0, false
	}
	return int64(c.nums[i]), true
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.valid))
	for i := range c.valid {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

func newTextColumn(name string, vals []string) *Column {
	c := &Column{name: name, kind: KindText, text: vals, valid: make([]bool, len(vals))}
	for i, v := range vals {
		c.valid[i] = v != ""
	}
	return c
}

// Table is an immutable, column-oriented table. All columns have the same
// length.
type Table struct {
	cols      []*Column
	index     map[string]int
	rows      int
	strategy  Strategy
	delimiter rune
	encoding  string
}

// Columns returns the columns in source order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Names returns the column names in source order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Column looks up a column by its normalized name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[NormalizeName(name)]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// MustColumn is Column returning a *MissingColumnError when absent.
func (t *Table) MustColumn(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &MissingColumnError{Column: name, Available: t.Names()}
	}
	return c, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Strategy returns the recovery step that produced the table.
func (t *Table) Strategy() Strategy { return t.strategy }

// Delimiter returns the field delimiter that parsed the source, or 0 when
// none applies (spreadsheet cells, degenerate table).
func (t *Table) Delimiter() rune { return t.delimiter }

// Encoding returns the text encoding that parsed the source.
func (t *Table) Encoding() string { return t.encoding }

// Usable reports whether the table is a real multi-column result rather
// than the degenerate single-column fallback.
func (t *Table) Usable() bool {
	return t.strategy != StrategyDegenerate && len(t.cols) > 1
}

// Row returns row i formatted as text.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Text(i)
	}
	return out
}

// newTable builds a table from a header and records. Records are padded to
// the header width; callers reject over-long records before this point.
func newTable(header []string, records [][]string) *Table {
	names := normalizeHeader(header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		vals := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				vals[i] = rec[j]
			}
		}
		cols[j] = newTextColumn(name, vals)
	}
	return fromColumns(cols, len(records))
}

func fromColumns(cols []*Column, rows int) *Table {
	t := &Table{cols: cols, rows: rows, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Len() != rows {
			panic(fmt.Sprintf("table: column %q has %d rows, want %d", c.name, c.Len(), rows))
		}
		t.index[c.name] = i
	}
	return t
}

func (t *Table) withSource(s Strategy, delim rune, enc string) *Table {
	t.strategy = s
	t.delimiter = delim
	t.encoding = enc
	return t
}

// NormalizeName trims, lowercases and replaces spaces with underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// normalizeHeader normalizes each name, names empty headers after their
// position and disambiguates duplicates with numeric suffixes.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeName(h)
		if name == "" {
			name = NormalizeName(fmt.Sprintf("Unnamed: %d", i))
		}
		if n, dup := seen[name]; dup {
			for {
				n++
				cand := fmt.Sprintf("%s.%d", name, n)
				if _, taken := seen[cand]; !taken {
					seen[name] = n
					name = cand
					break
				}
			}
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
