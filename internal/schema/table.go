// Package schema maps the source agency's native column vocabulary onto the
// internal one and applies record-level filters before any derivation runs.
package schema

import (
	"fmt"
)

// Table is one fragment's rows under internal column names. All cells are
// text; identifier-like columns are never numeric-coerced (see
// Mapping.ForceText).
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// NewTable creates an empty table with the given column order.
func NewTable(cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	return &Table{
		cols:  append([]string(nil), cols...),
		index: index,
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds one row. The cell count must match the column count.
func (t *Table) Append(cells []string) error {
	if len(cells) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.cols))
	}
	t.rows = append(t.rows, cells)
	return nil
}

// Row returns a view over row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, cells: t.rows[i]}
}

// Rows returns the underlying row slices in order. The load engine iterates
// this once when staging.
func (t *Table) Rows() [][]string {
	return t.rows
}

// Filter keeps only rows the predicate accepts, preserving order. Returns
// the number of rows removed.
func (t *Table) Filter(keep func(Row) bool) int {
	kept := t.rows[:0]
	for _, cells := range t.rows {
		if keep(Row{table: t, cells: cells}) {
			kept = append(kept, cells)
		}
	}
	removed := len(t.rows) - len(kept)
	t.rows = kept
	return removed
}

// AddColumn appends a derived column computed per row. The first row whose
// derivation fails aborts the whole fragment.
func (t *Table) AddColumn(name string, derive func(Row) (string, error)) error {
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	for i, cells := range t.rows {
		value, err := derive(Row{table: t, cells: cells})
		if err != nil {
			return fmt.Errorf("derive %q for row %d: %w", name, i, err)
		}
		t.rows[i] = append(cells, value)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	return nil
}

// Row is a read view over one table row.
type Row struct {
	table *Table
	cells []string
}

// Get returns the cell under the named column, or "" when the column does
// not exist.
func (r Row) Get(col string) string {
	i, ok := r.table.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}
