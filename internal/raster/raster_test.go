package raster

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *Dataset {
	// 2x2 grid, two sub-daily passes.
	return &Dataset{
		Lats:  []float64{34, 35},
		Lons:  []float64{-119, -118},
		Steps: 2,
		Vars: map[string]*Variable{
			"Qair_f_inst": {
				Steps: 2,
				Data: []float64{
					// pass 1
					0.004, 0.006,
					0.008, math.NaN(),
					// pass 2
					0.006, 0.006,
					math.NaN(), math.NaN(),
				},
			},
		},
	}
}

func TestNormalizeAveragesPasses(t *testing.T) {
	tbl, err := Normalize(testDataset(), "Qair_f_inst", "humidity", "2015-08-01", Options{})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	// Cell (34,-119) averages both passes; cell (35,-119) has one valid pass;
	// cell (35,-118) has none and is omitted.
	assert.InDelta(t, 0.005, tbl.Rows[0].Values["humidity"], 1e-12)
	assert.InDelta(t, 0.006, tbl.Rows[1].Values["humidity"], 1e-12)
	assert.InDelta(t, 0.008, tbl.Rows[2].Values["humidity"], 1e-12)
	for _, r := range tbl.Rows {
		assert.Equal(t, "2015-08-01", r.Date)
	}
}

func TestNormalizeMissingVariable(t *testing.T) {
	_, err := Normalize(testDataset(), "AvgSurfT_tavg", "temperature", "2015-08-01", Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNormalization))
}

func TestNormalizeUnitConversion(t *testing.T) {
	ds := &Dataset{
		Lats:  []float64{34},
		Lons:  []float64{-118},
		Steps: 1,
		Vars: map[string]*Variable{
			"AvgSurfT_tavg": {Steps: 1, Data: []float64{301.0}},
		},
	}
	tbl, err := Normalize(ds, "AvgSurfT_tavg", "temperature", "2015-08-01", Options{Unit: KelvinToCelsius})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.InDelta(t, 27.85, tbl.Rows[0].Values["temperature"], 1e-9)
}

func TestNormalizeSentinelAndFloor(t *testing.T) {
	ds := &Dataset{
		Lats:  []float64{34, 35},
		Lons:  []float64{-119, -118},
		Steps: 1,
		Vars: map[string]*Variable{
			"Optical_Depth_Land_And_Ocean": {
				Steps: 1,
				Data:  []float64{-9999, 0.05, -0.2, 0.4},
			},
		},
	}
	tbl, err := Normalize(ds, "Optical_Depth_Land_And_Ocean", "aod", "2015-08-01",
		Options{Sentinel: -9999, Floor: Floor(0.1)})
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	for _, r := range tbl.Rows {
		assert.NotEqual(t, -9999.0, r.Values["aod"], "sentinel row must be dropped, not floored")
		assert.GreaterOrEqual(t, r.Values["aod"], 0.1)
	}
	assert.InDelta(t, 0.4, tbl.Rows[2].Values["aod"], 1e-12)
}

func TestNormalizeAllMissing(t *testing.T) {
	ds := &Dataset{
		Lats:  []float64{34},
		Lons:  []float64{-118},
		Steps: 1,
		Vars: map[string]*Variable{
			"v": {Steps: 1, Data: []float64{math.NaN()}},
		},
	}
	_, err := Normalize(ds, "v", "v", "2015-08-01", Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrEmptyData))
}

func TestNormalizeIdempotent(t *testing.T) {
	ds := testDataset()
	a, err := Normalize(ds, "Qair_f_inst", "humidity", "2015-08-01", Options{})
	require.NoError(t, err)
	b, err := Normalize(ds, "Qair_f_inst", "humidity", "2015-08-01", Options{})
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Rows {
		assert.Equal(t, a.Rows[i], b.Rows[i])
	}
}

func TestNormalizeSpeed(t *testing.T) {
	ds := &Dataset{
		Lats:  []float64{34},
		Lons:  []float64{-118},
		Steps: 2,
		Vars: map[string]*Variable{
			"ULML": {Steps: 2, Data: []float64{3, 6}},
			"VLML": {Steps: 2, Data: []float64{4, 8}},
		},
	}
	tbl, err := NormalizeSpeed(ds, "ULML", "VLML", "wind_speed", "2015-08-01", Options{})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	// Speeds are 5 and 10 for the two passes; daily mean is 7.5.
	assert.InDelta(t, 7.5, tbl.Rows[0].Values["wind_speed"], 1e-12)
}

func TestNormalizeSpeedMissingComponent(t *testing.T) {
	ds := &Dataset{
		Lats: []float64{34}, Lons: []float64{-118}, Steps: 1,
		Vars: map[string]*Variable{"ULML": {Steps: 1, Data: []float64{1}}},
	}
	_, err := NormalizeSpeed(ds, "ULML", "VLML", "wind_speed", "2015-08-01", Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNormalization))
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20150801.nc4")

	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{1, 2, 2})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddVariable("Qair_f_inst", []string{"time", "lat", "lon"}, []float32{0})
	h.AddAttribute("Qair_f_inst", "_FillValue", []float32{-9999})
	h.AddAttribute("Qair_f_inst", "grid_mapping", "crs")
	h.Define()
	require.Empty(t, h.Check())

	f, err := os.Create(path)
	require.NoError(t, err)
	nc, err := cdf.Create(f, h)
	require.NoError(t, err)

	w := nc.Writer("lat", []int{0}, []int{2})
	_, err = w.Write([]float64{34, 35})
	require.NoError(t, err)
	w = nc.Writer("lon", []int{0}, []int{2})
	_, err = w.Write([]float64{-119, -118})
	require.NoError(t, err)
	w = nc.Writer("Qair_f_inst", []int{0, 0, 0}, []int{1, 2, 2})
	_, err = w.Write([]float32{0.5, 0.25, -9999, 0.75})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ds, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{34, 35}, ds.Lats)
	assert.Equal(t, []float64{-119, -118}, ds.Lons)

	v, ok := ds.Vars["Qair_f_inst"]
	require.True(t, ok)
	assert.Equal(t, 1, v.Steps)
	assert.InDelta(t, 0.5, v.Data[0], 1e-6)
	assert.True(t, math.IsNaN(v.Data[2]), "fill value must become NaN")
	assert.Equal(t, "crs", v.Attrs["grid_mapping"])
}
