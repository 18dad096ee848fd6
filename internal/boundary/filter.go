package boundary

import (
	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/table"
)

// Box is a coarse latitude/longitude bounding box.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// CaliforniaBox is the rough California envelope used as the fast default
// point filter: latitude in (33, 42), longitude below -115.
var CaliforniaBox = Box{MinLat: 33, MaxLat: 42, MinLon: -180, MaxLon: -115}

// Contains reports whether the point falls strictly inside the box.
func (b Box) Contains(lat, lon float64) bool {
	return lat > b.MinLat && lat < b.MaxLat && lon > b.MinLon && lon < b.MaxLon
}

// FilterBox keeps only rows whose coordinates fall inside the box. This is
// the cheap default for point variables where grid cells outside the region
// only need a rough cut.
func FilterBox(t *table.Table, box Box) *table.Table {
	return t.Filter(func(r table.Row) bool {
		return box.Contains(r.Latitude, r.Longitude)
	})
}

// FilterPolygon keeps only rows whose coordinates fall inside the boundary
// polygons. Used where row volume is large and box filtering would admit too
// much ocean and neighboring-state data (aerosol swaths).
func (b *Boundary) FilterPolygon(t *table.Table) (*table.Table, error) {
	if b == nil || len(b.polygons) == 0 {
		return nil, eris.Wrap(ErrGeometry, "filter points")
	}
	return t.Filter(func(r table.Row) bool {
		return b.Contains(r.Latitude, r.Longitude)
	}), nil
}
