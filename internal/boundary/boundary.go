// Package boundary loads the region-of-interest polygon set and filters
// spatial data to it. The boundary is loaded once at startup and is immutable
// afterwards; every containment test is a pure read.
package boundary

import (
	"encoding/json"
	"os"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// ErrLoad indicates the boundary file is missing or malformed. This is fatal
// at startup: without a boundary no spatial filtering is possible.
var ErrLoad = eris.New("boundary: load failed")

// ErrGeometry indicates a filter was asked to run against a boundary with no
// usable geometry.
var ErrGeometry = eris.New("boundary: no valid geometry")

// Boundary is an immutable set of polygons defining the region of interest.
type Boundary struct {
	polygons []*geom.Polygon
	bounds   *geom.Bounds
}

// Load reads a GeoJSON FeatureCollection and collects every Polygon and
// MultiPolygon geometry in it.
func Load(path string) (*Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "read %s: %v", path, err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(ErrLoad, "decode %s: %v", path, err)
	}

	b := &Boundary{}
	for _, f := range fc.Features {
		b.addGeometry(f.Geometry)
	}
	if len(b.polygons) == 0 {
		return nil, eris.Wrapf(ErrLoad, "%s contains no polygon features", path)
	}

	zap.L().Info("boundary loaded",
		zap.String("path", path),
		zap.Int("polygons", len(b.polygons)),
	)
	return b, nil
}

// LoadShapefile reads the boundary from an ESRI shapefile instead of GeoJSON.
// Both formats are in circulation for state boundary sets.
func LoadShapefile(path string) (*Boundary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open shapefile %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	b := &Boundary{}
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		b.addGeometry(shpPolygonToGeom(poly))
	}
	if len(b.polygons) == 0 {
		return nil, eris.Wrapf(ErrLoad, "%s contains no polygon shapes", path)
	}

	zap.L().Info("boundary loaded",
		zap.String("path", path),
		zap.Int("polygons", len(b.polygons)),
	)
	return b, nil
}

func (b *Boundary) addGeometry(g geom.T) {
	switch t := g.(type) {
	case *geom.Polygon:
		b.addPolygon(t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			b.addPolygon(t.Polygon(i))
		}
	case *geom.GeometryCollection:
		for _, sub := range t.Geoms() {
			b.addGeometry(sub)
		}
	}
}

func (b *Boundary) addPolygon(p *geom.Polygon) {
	if p == nil || p.NumLinearRings() == 0 {
		return
	}
	b.polygons = append(b.polygons, p)
	if b.bounds == nil {
		b.bounds = p.Bounds().Clone()
	} else {
		b.bounds.Extend(p)
	}
}

// NumPolygons returns the number of polygons in the boundary.
func (b *Boundary) NumPolygons() int { return len(b.polygons) }

// Contains reports whether the point lies inside any boundary polygon,
// counting holes as outside. GeoJSON coordinate order is (lon, lat).
func (b *Boundary) Contains(lat, lon float64) bool {
	p := geom.Coord{lon, lat}
	if b.bounds != nil && !b.bounds.OverlapsPoint(geom.XY, p) {
		return false
	}
	for _, poly := range b.polygons {
		if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for i := 1; i < poly.NumLinearRings(); i++ {
			if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Box returns the bounding box of the boundary geometry.
func (b *Boundary) Box() Box {
	if b.bounds == nil {
		return Box{}
	}
	return Box{
		MinLat: b.bounds.Min(1),
		MaxLat: b.bounds.Max(1),
		MinLon: b.bounds.Min(0),
		MaxLon: b.bounds.Max(0),
	}
}

// shpPolygonToGeom converts a shapefile Polygon into a go-geom MultiPolygon.
// Each shapefile part becomes a single-ring polygon; hole detection by ring
// winding is not attempted, matching how the boundary files are produced.
func shpPolygonToGeom(p *shp.Polygon) geom.T {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
