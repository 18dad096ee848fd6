// Package raster converts one gridded, timestamped raster into the flat
// normalized table consumed by the rest of the pipeline. Sub-daily passes are
// averaged per grid cell, sentinel fill values are sanitized, units are
// converted, and the result is stamped with a canonical date string.
package raster

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/boundary"
	"github.com/calclimate/firedash/internal/table"
)

// ErrNormalization indicates a raw dataset could not be normalized, typically
// because the requested variable is absent. Store builds recover by skipping
// the file.
var ErrNormalization = eris.New("raster: normalization failed")

// ErrEmptyData indicates a table came out empty after missing-value
// filtering. Some dates legitimately have no satellite passes, so callers
// treat this as skip-and-continue, not as fatal.
var ErrEmptyData = eris.New("raster: no rows after filtering")

// Variable is one gridded measurement, time-major over the dataset's axes.
type Variable struct {
	Data  []float64 // Steps * len(Lats) * len(Lons), NaN where missing
	Steps int
	Attrs map[string]string
}

// Dataset is an in-memory raster: regular lat/lon axes plus gridded
// variables, possibly with multiple sub-daily time steps.
type Dataset struct {
	Lats  []float64
	Lons  []float64
	Steps int
	Vars  map[string]*Variable
}

func (v *Variable) at(step, i, j, nlat, nlon int) float64 {
	return v.Data[step*nlat*nlon+i*nlon+j]
}

// Options controls normalization of one variable.
type Options struct {
	// Unit converts each cell value after temporal averaging (Kelvin to
	// Celsius, confidence to fraction). Nil means no conversion.
	Unit func(float64) float64
	// Sentinel is an additional no-data marker beyond the declared
	// _FillValue (the aerosol product uses -9999 in-band). Zero disables it.
	Sentinel float64
	// Floor clamps present values below it up to the floor instead of
	// dropping them. Sentinel rows are dropped first, so a floor never
	// resurrects true no-data cells.
	Floor *float64
	// Boundary restricts output to cells inside the region. Nil keeps all.
	Boundary *boundary.Boundary
}

// Floor returns a pointer to v for use as Options.Floor.
func Floor(v float64) *float64 { return &v }

// Normalize flattens one variable of a raster into (latitude, longitude,
// value, date) rows. Cells with no valid observation on any time step are
// omitted, never emitted as zero.
func Normalize(ds *Dataset, variable, column, date string, opts Options) (*table.Table, error) {
	v, ok := ds.Vars[variable]
	if !ok {
		return nil, eris.Wrapf(ErrNormalization, "variable %q not in dataset", variable)
	}
	return normalizeCells(ds, date, column, opts, func(i, j int) float64 {
		return cellMean(v, i, j, len(ds.Lats), len(ds.Lons), opts.Sentinel)
	})
}

// NormalizeSpeed derives wind speed from easterly and northerly component
// variables: sqrt(u²+v²) per time step, then the per-cell daily mean.
func NormalizeSpeed(ds *Dataset, uVariable, vVariable, column, date string, opts Options) (*table.Table, error) {
	u, ok := ds.Vars[uVariable]
	if !ok {
		return nil, eris.Wrapf(ErrNormalization, "variable %q not in dataset", uVariable)
	}
	w, ok := ds.Vars[vVariable]
	if !ok {
		return nil, eris.Wrapf(ErrNormalization, "variable %q not in dataset", vVariable)
	}
	if u.Steps != w.Steps {
		return nil, eris.Wrapf(ErrNormalization, "wind components disagree on time steps: %d vs %d", u.Steps, w.Steps)
	}

	nlat, nlon := len(ds.Lats), len(ds.Lons)
	return normalizeCells(ds, date, column, opts, func(i, j int) float64 {
		var sum float64
		var n int
		for s := 0; s < u.Steps; s++ {
			uu := u.at(s, i, j, nlat, nlon)
			vv := w.at(s, i, j, nlat, nlon)
			if math.IsNaN(uu) || math.IsNaN(vv) {
				continue
			}
			sum += math.Sqrt(uu*uu + vv*vv)
			n++
		}
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	})
}

// normalizeCells walks the grid lat-major, applies boundary and unit rules,
// and assembles the output table.
func normalizeCells(ds *Dataset, date, column string, opts Options, value func(i, j int) float64) (*table.Table, error) {
	out := table.New(column)
	for i, lat := range ds.Lats {
		for j, lon := range ds.Lons {
			if opts.Boundary != nil && !opts.Boundary.Contains(lat, lon) {
				continue
			}
			v := value(i, j)
			if math.IsNaN(v) {
				continue
			}
			if opts.Unit != nil {
				v = opts.Unit(v)
			}
			if opts.Floor != nil && v < *opts.Floor {
				v = *opts.Floor
			}
			out.Append(lat, lon, date, v)
		}
	}
	if out.Len() == 0 {
		return nil, eris.Wrapf(ErrEmptyData, "date %s", date)
	}
	return out, nil
}

// cellMean averages one cell across time steps, ignoring NaN and sentinel
// observations. Returns NaN when no step has a valid value.
func cellMean(v *Variable, i, j, nlat, nlon int, sentinel float64) float64 {
	var sum float64
	var n int
	for s := 0; s < v.Steps; s++ {
		x := v.at(s, i, j, nlat, nlon)
		if math.IsNaN(x) || (sentinel != 0 && x == sentinel) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Clip masks every grid cell outside the boundary and strips grid-mapping
// attributes that would conflict with serializing the clipped subset.
func Clip(ds *Dataset, b *boundary.Boundary) *Dataset {
	nlat, nlon := len(ds.Lats), len(ds.Lons)
	out := &Dataset{
		Lats:  ds.Lats,
		Lons:  ds.Lons,
		Steps: ds.Steps,
		Vars:  make(map[string]*Variable, len(ds.Vars)),
	}
	for name, v := range ds.Vars {
		data := make([]float64, len(v.Data))
		copy(data, v.Data)
		for i, lat := range ds.Lats {
			for j, lon := range ds.Lons {
				if b.Contains(lat, lon) {
					continue
				}
				for s := 0; s < v.Steps; s++ {
					data[s*nlat*nlon+i*nlon+j] = math.NaN()
				}
			}
		}
		attrs := make(map[string]string, len(v.Attrs))
		for k, val := range v.Attrs {
			if k == "grid_mapping" {
				continue
			}
			attrs[k] = val
		}
		out.Vars[name] = &Variable{Data: data, Steps: v.Steps, Attrs: attrs}
	}
	return out
}
