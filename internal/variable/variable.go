// Package variable defines the ingestion schema for each climate product.
// Source CSVs disagree on coordinate naming (lat/lon vs Latitude/Longitude)
// and carry product-specific value headers; everything is normalized here, at
// the ingestion boundary, so downstream code only ever sees canonical column
// names.
package variable

import (
	"io"

	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/boundary"
	"github.com/calclimate/firedash/internal/raster"
	"github.com/calclimate/firedash/internal/table"
)

// ReadFunc decodes one dated source file into a normalized table.
type ReadFunc func(r io.Reader, date string) (*table.Table, error)

// Definition describes how one climate variable's files are laid out and
// decoded.
type Definition struct {
	// Name is the canonical value column, e.g. "humidity".
	Name string
	// Subdir is the conventional directory for dated files under the
	// variable's data root.
	Subdir string
	// Ext is the file extension scanned for.
	Ext string
	// Read decodes one file.
	Read ReadFunc
	// ReadFile, when set, is used instead of Read for formats that need
	// random access to the file (NetCDF).
	ReadFile func(path, date string) (*table.Table, error)
}

// Humidity reads GLDAS specific humidity extracts (Qair_f_inst, kg/kg).
// Zero-humidity rows are grid points outside the clipped region and are
// dropped before any join.
func Humidity() Definition {
	return Definition{
		Name:   "humidity",
		Subdir: "processed_data",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			return readValueCSV(r, "Qair_f_inst", "humidity", date, dropZero)
		},
	}
}

// Temperature reads GLDAS average surface temperature extracts
// (AvgSurfT_tavg, Kelvin), converting to Celsius.
func Temperature() Definition {
	return Definition{
		Name:   "temperature",
		Subdir: "processed",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			return readValueCSV(r, "AvgSurfT_tavg", "temperature", date, kelvinToCelsius)
		},
	}
}

// PrecipitationDaily reads daily IMERG calibrated precipitation extracts.
func PrecipitationDaily() Definition {
	return Definition{
		Name:   "precipitation",
		Subdir: "daily",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			return readValueCSV(r, "precipitationCal", "precipitation", date, nil)
		},
	}
}

// PrecipitationMonthly reads monthly IMERG precipitation extracts, keyed by
// YYYY-MM dates.
func PrecipitationMonthly() Definition {
	return Definition{
		Name:   "precipitation",
		Subdir: "monthly",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			return readValueCSV(r, "precipitation", "precipitation", date, nil)
		},
	}
}

// Wind reads MERRA-2 surface wind speed extracts (SPEEDLML, m/s). The
// processing stage wrote zero speed for out-of-region cells, so zero rows are
// dropped.
func Wind() Definition {
	return Definition{
		Name:   "wind_speed",
		Subdir: "csv/daily",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			return readValueCSV(r, "SPEEDLML", "wind_speed", date, dropZero)
		},
	}
}

// Aerosol reads MODIS aerosol optical depth point extracts. The swath covers
// far more than the region of interest, so rows are filtered by exact polygon
// containment rather than the coarse box; the in-band -9999 sentinel is
// dropped and remaining negative retrievals are floored to 0.1.
func Aerosol(b *boundary.Boundary) Definition {
	return Definition{
		Name:   "aod",
		Subdir: "raw_data",
		Ext:    ".csv",
		Read: func(r io.Reader, date string) (*table.Table, error) {
			tbl, err := readValueCSV(r, "Optical_Depth_Land_And_Ocean", "aod", date, aerosolDepth)
			if err != nil {
				return nil, err
			}
			tbl, err = b.FilterPolygon(tbl)
			if err != nil {
				return nil, err
			}
			if tbl.Len() == 0 {
				return nil, eris.Wrapf(raster.ErrEmptyData, "date %s: no samples inside boundary", date)
			}
			return tbl, nil
		},
	}
}
