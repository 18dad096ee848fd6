// Package pipeline wires the variable stores together: it builds every store
// from its source directory, loads the fire archive, and answers the
// cross-variable queries (common dates, per-date joins) the accessor surface
// exposes. A pipeline is built once at startup; afterwards it is read-only
// and safe for concurrent queries.
package pipeline

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/calclimate/firedash/internal/boundary"
	"github.com/calclimate/firedash/internal/fire"
	"github.com/calclimate/firedash/internal/spatial"
	"github.com/calclimate/firedash/internal/store"
	"github.com/calclimate/firedash/internal/table"
	"github.com/calclimate/firedash/internal/variable"
)

// Canonical variable names as exposed by queries.
const (
	VarHumidity      = "humidity"
	VarTemperature   = "temperature"
	VarPrecipitation = "precipitation"
	VarWindSpeed     = "wind_speed"
	VarAerosol       = "aod"
)

// Sources names the input directories. Root anchors each variable's
// conventional subdirectory; a non-empty per-variable override wins.
type Sources struct {
	Root string

	HumidityDir      string
	TemperatureDir   string
	PrecipDailyDir   string
	PrecipMonthlyDir string
	WindDir          string
	AerosolDir       string
	FireDir          string
	BoundaryPath     string
}

func (s Sources) dir(override, subdir string) string {
	if override != "" {
		return override
	}
	return filepath.Join(s.Root, subdir)
}

// DirFor resolves the source directory for one canonical variable name.
// Cache signatures are computed over this directory.
func (s Sources) DirFor(name string) (string, error) {
	switch name {
	case VarHumidity:
		return s.dir(s.HumidityDir, variable.Humidity().Subdir), nil
	case VarTemperature:
		return s.dir(s.TemperatureDir, variable.Temperature().Subdir), nil
	case VarPrecipitation:
		return s.dir(s.PrecipDailyDir, variable.PrecipitationDaily().Subdir), nil
	case VarWindSpeed:
		return s.dir(s.WindDir, variable.Wind().Subdir), nil
	case VarAerosol:
		return s.dir(s.AerosolDir, variable.Aerosol(nil).Subdir), nil
	}
	return "", eris.Errorf("pipeline: unknown variable %q", name)
}

// Pipeline holds the built stores and the fire archive.
type Pipeline struct {
	stores   map[string]*store.Store
	monthly  *store.Store
	fires    *fire.Archive
	boundary *boundary.Boundary
}

// Build constructs every store in parallel. A failed store fails the build;
// per-file problems inside a store are skip-reported, not fatal.
func Build(ctx context.Context, src Sources) (*Pipeline, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	var b *boundary.Boundary
	if src.BoundaryPath != "" {
		var err error
		b, err = boundary.Load(src.BoundaryPath)
		if err != nil {
			return nil, err
		}
	}

	type job struct {
		name    string
		dir     string
		def     variable.Definition
		extract store.Extractor
	}
	humidity := variable.Humidity()
	temperature := variable.Temperature()
	precipDaily := variable.PrecipitationDaily()
	precipMonthly := variable.PrecipitationMonthly()
	wind := variable.Wind()
	aerosol := variable.Aerosol(b)

	jobs := []job{
		{VarHumidity, src.dir(src.HumidityDir, humidity.Subdir), humidity, store.ISODate},
		{VarTemperature, src.dir(src.TemperatureDir, temperature.Subdir), temperature, store.ISODate},
		{VarPrecipitation, src.dir(src.PrecipDailyDir, precipDaily.Subdir), precipDaily, store.ISODate},
		{"precipitation_monthly", src.dir(src.PrecipMonthlyDir, precipMonthly.Subdir), precipMonthly, store.YearMonth},
		{VarWindSpeed, src.dir(src.WindDir, wind.Subdir), wind, store.FirstOf(store.ISODate, store.CompactDate)},
		{VarAerosol, src.dir(src.AerosolDir, aerosol.Subdir), aerosol, store.JulianDate},
	}

	p := &Pipeline{stores: map[string]*store.Store{}, boundary: b}
	results := make([]*store.Store, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "pipeline: build cancelled")
			}
			s, err := store.Build(j.dir, j.def, j.extract)
			if err != nil {
				return eris.Wrapf(err, "pipeline: build %s", j.name)
			}
			results[i] = s
			return nil
		})
	}
	g.Go(func() error {
		a, err := fire.LoadDir(src.dir(src.FireDir, "fire_data"), boundary.CaliforniaBox)
		if err != nil {
			return eris.Wrap(err, "pipeline: load fire archive")
		}
		p.fires = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		if j.name == "precipitation_monthly" {
			p.monthly = results[i]
			continue
		}
		p.stores[j.name] = results[i]
	}

	log.Info("pipeline built",
		zap.Int("variables", len(p.stores)),
		zap.Int("fire_events", p.fires.Total()),
	)
	return p, nil
}

// Store returns the daily store for one canonical variable name.
func (p *Pipeline) Store(name string) (*store.Store, error) {
	s, ok := p.stores[name]
	if !ok {
		return nil, eris.Errorf("pipeline: unknown variable %q", name)
	}
	return s, nil
}

// Monthly returns the monthly precipitation store.
func (p *Pipeline) Monthly() *store.Store { return p.monthly }

// Fires returns the fire archive.
func (p *Pipeline) Fires() *fire.Archive { return p.fires }

// Boundary returns the loaded boundary, or nil when none was configured.
func (p *Pipeline) Boundary() *boundary.Boundary { return p.boundary }

// Variables lists the daily variables ascending by name.
func (p *Pipeline) Variables() []string {
	names := make([]string, 0, len(p.stores))
	for n := range p.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// joinVariables is the multivariate query set, in join order.
var joinVariables = []string{VarTemperature, VarPrecipitation, VarHumidity, VarWindSpeed}

// CommonDates returns the dates on which every join variable has data,
// ascending.
func (p *Pipeline) CommonDates() []string {
	first, ok := p.stores[joinVariables[0]]
	if !ok {
		return nil
	}
	var common []string
	for _, d := range first.Dates() {
		shared := true
		for _, name := range joinVariables[1:] {
			s, ok := p.stores[name]
			if !ok || !s.Has(d) {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, d)
		}
	}
	return common
}

// JoinDate inner-joins all join variables present on one date onto the
// whole-degree grid. Variables with no file for the date are excluded from
// the join; a date no variable covers returns ErrNotFound.
func (p *Pipeline) JoinDate(date string) (*table.Table, error) {
	var tables []*table.Table
	for _, name := range joinVariables {
		s, ok := p.stores[name]
		if !ok {
			continue
		}
		tbl, err := s.Get(date)
		if err != nil {
			if eris.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		tables = append(tables, tbl)
	}
	if len(tables) == 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "join on %s", date)
	}
	return spatial.Join(tables...)
}

// PredictWindow is the default inference date range.
var PredictWindow = struct{ From, To string }{"2015-08-01", "2015-08-31"}

// PredictDates returns the common dates inside the default inference window.
func (p *Pipeline) PredictDates() []string {
	var out []string
	for _, d := range p.CommonDates() {
		if d >= PredictWindow.From && d <= PredictWindow.To {
			out = append(out, d)
		}
	}
	return out
}
