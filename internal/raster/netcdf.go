package raster

import (
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Open reads a NetCDF raster file into memory. Every floating-point variable
// gridded on [lat, lon] or [time, lat, lon] is loaded; auxiliary coordinate
// variables with other shapes (time_bnds and friends) are left behind, which
// is what keeps them from leaking into serialized output later. Fill values
// declared via the _FillValue attribute are replaced with NaN on read.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	nc, err := cdf.Open(f)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read NetCDF header %s", path)
	}

	lats, err := readFloatVar(nc, "lat")
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read lat axis of %s", path)
	}
	lons, err := readFloatVar(nc, "lon")
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read lon axis of %s", path)
	}
	if lats == nil || lons == nil {
		return nil, eris.Errorf("raster: %s has no lat/lon axes", path)
	}

	ds := &Dataset{
		Lats:  lats,
		Lons:  lons,
		Steps: 1,
		Vars:  map[string]*Variable{},
	}

	for _, name := range nc.Header.Variables() {
		dims := nc.Header.Dimensions(name)
		steps := 0
		switch {
		case len(dims) == 2 && dims[0] == "lat" && dims[1] == "lon":
			steps = 1
		case len(dims) == 3 && dims[0] == "time" && dims[1] == "lat" && dims[2] == "lon":
			steps = nc.Header.Lengths(name)[0]
		default:
			continue
		}

		data, err := readFloatVar(nc, name)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: read variable %s of %s", name, path)
		}
		if data == nil {
			continue
		}
		applyFillValue(nc, name, data)

		if steps > ds.Steps {
			ds.Steps = steps
		}
		ds.Vars[name] = &Variable{
			Data:  data,
			Steps: steps,
			Attrs: stringAttrs(nc, name),
		}
	}

	zap.L().Debug("raster opened",
		zap.String("path", path),
		zap.Int("variables", len(ds.Vars)),
		zap.Int("lats", len(lats)),
		zap.Int("lons", len(lons)),
	)
	return ds, nil
}

// readFloatVar reads a floating point variable, widening float32 to float64.
// Returns nil for variables that are absent or not floating point.
func readFloatVar(nc *cdf.File, name string) ([]float64, error) {
	found := false
	for _, v := range nc.Header.Variables() {
		if v == name {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	r := nc.Reader(name, nil, nil)
	buf := r.Zero(-1)
	switch buf.(type) {
	case []float32, []float64:
	default:
		return nil, nil
	}
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}

	switch data := buf.(type) {
	case []float64:
		return data, nil
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, nil
}

// applyFillValue replaces declared fill values with NaN in place.
func applyFillValue(nc *cdf.File, name string, data []float64) {
	attr := nc.Header.GetAttribute(name, "_FillValue")
	if attr == nil {
		return
	}
	var fill float64
	switch v := attr.(type) {
	case []float32:
		if len(v) == 0 {
			return
		}
		fill = float64(v[0])
	case []float64:
		if len(v) == 0 {
			return
		}
		fill = v[0]
	default:
		return
	}
	for i, d := range data {
		if d == fill {
			data[i] = math.NaN()
		}
	}
}

// stringAttrs collects the text attributes of a variable.
func stringAttrs(nc *cdf.File, name string) map[string]string {
	attrs := map[string]string{}
	for _, a := range nc.Header.Attributes(name) {
		if s, ok := nc.Header.GetAttribute(name, a).(string); ok {
			attrs[a] = s
		}
	}
	return attrs
}
