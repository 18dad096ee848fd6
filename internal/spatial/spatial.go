// Package spatial reconciles variables sampled on different native grids onto
// one coarse whole-degree grid, then inner-joins them cell-for-cell. The join
// is strict: a cell survives only when every supplied variable observed it.
package spatial

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/table"
)

type cell struct {
	lat, lon float64
}

// RoundAndDedupe snaps each row's coordinates to the nearest whole-degree
// cell and averages duplicate cells per value column. Row order of the result
// is deterministic (south-to-north, then west-to-east).
func RoundAndDedupe(t *table.Table) *table.Table {
	type acc struct {
		sums  map[string]float64
		count float64
		date  string
	}
	cells := map[cell]*acc{}
	for _, r := range t.Rows {
		c := cell{lat: math.Round(r.Latitude), lon: math.Round(r.Longitude)}
		a, ok := cells[c]
		if !ok {
			a = &acc{sums: map[string]float64{}, date: r.Date}
			cells[c] = a
		}
		for _, col := range t.Columns {
			a.sums[col] += r.Values[col]
		}
		a.count++
	}

	keys := make([]cell, 0, len(cells))
	for c := range cells {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lat != keys[j].lat {
			return keys[i].lat < keys[j].lat
		}
		return keys[i].lon < keys[j].lon
	})

	out := table.New(t.Columns...)
	for _, c := range keys {
		a := cells[c]
		values := make(map[string]float64, len(t.Columns))
		for _, col := range t.Columns {
			values[col] = a.sums[col] / a.count
		}
		out.Rows = append(out.Rows, table.Row{
			Latitude:  c.lat,
			Longitude: c.lon,
			Date:      a.date,
			Values:    values,
		})
	}
	return out
}

// Join inner-joins per-variable tables on the rounded (lat, lon) cell. Inputs
// are rounded and deduplicated first, so callers may pass native-grid tables
// directly. Cells missing from any table are dropped.
func Join(tables ...*table.Table) (*table.Table, error) {
	if len(tables) == 0 {
		return nil, eris.New("spatial: join of zero tables")
	}

	rounded := make([]*table.Table, len(tables))
	columns := make([]string, 0, len(tables))
	for i, t := range tables {
		rounded[i] = RoundAndDedupe(t)
		columns = append(columns, t.Columns...)
	}

	indexes := make([]map[cell]table.Row, len(rounded))
	for i, t := range rounded[1:] {
		idx := make(map[cell]table.Row, len(t.Rows))
		for _, r := range t.Rows {
			idx[cell{lat: r.Latitude, lon: r.Longitude}] = r
		}
		indexes[i+1] = idx
	}

	out := table.New(columns...)
	for _, base := range rounded[0].Rows {
		c := cell{lat: base.Latitude, lon: base.Longitude}
		values := make(map[string]float64, len(columns))
		for k, v := range base.Values {
			values[k] = v
		}

		matched := true
		for _, idx := range indexes[1:] {
			row, ok := idx[c]
			if !ok {
				matched = false
				break
			}
			for k, v := range row.Values {
				values[k] = v
			}
		}
		if !matched {
			continue
		}
		out.Rows = append(out.Rows, table.Row{
			Latitude:  c.lat,
			Longitude: c.lon,
			Date:      base.Date,
			Values:    values,
		})
	}
	return out, nil
}
