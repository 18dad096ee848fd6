package variable

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/raster"
	"github.com/calclimate/firedash/internal/table"
)

// coords coalesces the two coordinate naming conventions found in source
// CSVs. Exactly one variant of each axis is populated per file.
type coords struct {
	Lat       *float64 `csv:"lat"`
	Latitude  *float64 `csv:"latitude"`
	LatitudeC *float64 `csv:"Latitude"`
	Lon       *float64 `csv:"lon"`
	Longitude *float64 `csv:"longitude"`
	LongitudC *float64 `csv:"Longitude"`
}

func (c coords) latlon() (float64, float64, bool) {
	lat := coalesce(c.Lat, c.Latitude, c.LatitudeC)
	lon := coalesce(c.Lon, c.Longitude, c.LongitudC)
	if lat == nil || lon == nil {
		return 0, 0, false
	}
	return *lat, *lon, true
}

func coalesce(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// transform maps a raw value to its normalized form; returning false drops
// the row.
type transform func(v float64) (float64, bool)

func dropZero(v float64) (float64, bool)        { return v, v != 0 }
func kelvinToCelsius(v float64) (float64, bool) { return raster.KelvinToCelsius(v), true }

// aerosolDepth drops the in-band -9999 sentinel and floors remaining small
// or negative retrievals to 0.1.
func aerosolDepth(v float64) (float64, bool) {
	if v == -9999 {
		return 0, false
	}
	if v < 0.1 {
		return 0.1, true
	}
	return v, true
}

// readValueCSV decodes one dated CSV into a single-column normalized table.
// The source value header is verified up front so a missing variable is
// reported as a normalization failure rather than an empty result. Rows with
// missing coordinates or values (clipped cells serialized as blanks or NaN)
// are dropped.
func readValueCSV(r io.Reader, source, column, date string, tf transform) (*table.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrapf(raster.ErrEmptyData, "date %s: no CSV header", date)
	}
	if !containsHeader(header, source) {
		return nil, eris.Wrapf(raster.ErrNormalization, "column %q absent from CSV", source)
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, eris.Wrapf(raster.ErrNormalization, "decode CSV: %v", err)
	}

	out := table.New(column)
	for {
		// csvutil maps coordinates by struct tag; the value column name
		// varies per product, so it is bound manually from the raw record.
		var c coords
		if err := dec.Decode(&c); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(raster.ErrNormalization, "decode CSV row: %v", err)
		}
		value := fieldFromRecord(dec.Record(), header, source)

		lat, lon, ok := c.latlon()
		if !ok || value == nil || math.IsNaN(*value) {
			continue
		}
		v := *value
		if tf != nil {
			if nv, keep := tf(v); keep {
				v = nv
			} else {
				continue
			}
		}
		out.Append(lat, lon, date, v)
	}

	if out.Len() == 0 {
		return nil, eris.Wrapf(raster.ErrEmptyData, "date %s", date)
	}
	return out, nil
}

func containsHeader(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}

// fieldFromRecord pulls the named column out of the most recently decoded
// raw record, treating blanks and unparsable cells as missing.
func fieldFromRecord(record, header []string, name string) *float64 {
	for i, h := range header {
		if h != name || i >= len(record) {
			continue
		}
		if record[i] == "" {
			return nil
		}
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return nil
		}
		return &v
	}
	return nil
}
