// Package table defines the flat row-per-sample table that every variable is
// normalized into. All downstream components (aggregation, joining, inference)
// consume this one shape, so the canonical column contract lives here:
// coordinates are always named "latitude" and "longitude", value columns carry
// the canonical variable name (never the source product's header), and dates
// are ISO calendar days (YYYY-MM-DD) or months (YYYY-MM).
package table

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Row is one spatial sample on one date. Values is keyed by canonical value
// column name; a normalized single-variable table has exactly one entry.
type Row struct {
	Latitude  float64
	Longitude float64
	Date      string
	Values    map[string]float64
}

// Value returns the named value column of the row.
func (r Row) Value(column string) (float64, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Table is a flat table of spatial samples with a fixed set of value columns.
type Table struct {
	// Columns lists the value columns present in every row, in a stable order.
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given value columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a single-value row to a one-column table.
func (t *Table) Append(lat, lon float64, date string, value float64) {
	t.Rows = append(t.Rows, Row{
		Latitude:  lat,
		Longitude: lon,
		Date:      date,
		Values:    map[string]float64{t.Columns[0]: value},
	})
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table carries the named value column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column extracts one value column in row order.
func (t *Table) Column(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, eris.Errorf("table: no column %q", name)
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[name]
	}
	return out, nil
}

// Filter returns a new table holding only rows for which keep returns true.
// The input table is not modified.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// SortByDate orders rows ascending by date string. The canonical date formats
// sort correctly as plain strings.
func (t *Table) SortByDate() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Date < t.Rows[j].Date
	})
}

// Concat unions tables sharing one column set. Row dates carry provenance, so
// the concatenated view can always be grouped back per day.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return &Table{}, nil
	}
	out := &Table{Columns: tables[0].Columns}
	for _, t := range tables {
		if len(t.Columns) != len(out.Columns) {
			return nil, eris.New("table: concat of mismatched column sets")
		}
		for i, c := range t.Columns {
			if c != out.Columns[i] {
				return nil, eris.Errorf("table: concat of mismatched columns %q vs %q", c, out.Columns[i])
			}
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}
