package variable

import (
	"github.com/calclimate/firedash/internal/boundary"
	"github.com/calclimate/firedash/internal/raster"
	"github.com/calclimate/firedash/internal/table"
)

// The raster-backed definitions below ingest raw satellite granules directly
// instead of the preprocessed CSV extracts. They clip to the boundary during
// normalization, so a separate preprocessing stage is not required.

// HumidityRaster reads raw GLDAS .nc4 granules.
func HumidityRaster(b *boundary.Boundary) Definition {
	return Definition{
		Name:   "humidity",
		Subdir: "raw_data",
		Ext:    ".nc4",
		ReadFile: func(path, date string) (*table.Table, error) {
			ds, err := raster.Open(path)
			if err != nil {
				return nil, err
			}
			return raster.Normalize(ds, "Qair_f_inst", "humidity", date, raster.Options{Boundary: b})
		},
	}
}

// TemperatureRaster reads raw GLDAS surface temperature .nc4 granules,
// converting Kelvin to Celsius.
func TemperatureRaster(b *boundary.Boundary) Definition {
	return Definition{
		Name:   "temperature",
		Subdir: "raw",
		Ext:    ".nc4",
		ReadFile: func(path, date string) (*table.Table, error) {
			ds, err := raster.Open(path)
			if err != nil {
				return nil, err
			}
			return raster.Normalize(ds, "AvgSurfT_tavg", "temperature", date, raster.Options{
				Unit:     raster.KelvinToCelsius,
				Boundary: b,
			})
		},
	}
}

// PrecipitationRaster reads raw IMERG daily .nc4 granules.
func PrecipitationRaster(b *boundary.Boundary) Definition {
	return Definition{
		Name:   "precipitation",
		Subdir: "raw/daily_data",
		Ext:    ".nc4",
		ReadFile: func(path, date string) (*table.Table, error) {
			ds, err := raster.Open(path)
			if err != nil {
				return nil, err
			}
			return raster.Normalize(ds, "precipitationCal", "precipitation", date, raster.Options{Boundary: b})
		},
	}
}

// WindRaster reads raw MERRA-2 .nc4 granules, deriving surface wind speed
// from the easterly and northerly components averaged over the day's passes.
func WindRaster(b *boundary.Boundary) Definition {
	return Definition{
		Name:   "wind_speed",
		Subdir: "raw/daily_data",
		Ext:    ".nc4",
		ReadFile: func(path, date string) (*table.Table, error) {
			ds, err := raster.Open(path)
			if err != nil {
				return nil, err
			}
			return raster.NormalizeSpeed(ds, "ULML", "VLML", "wind_speed", date, raster.Options{Boundary: b})
		},
	}
}
