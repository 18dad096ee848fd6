// Package store builds and serves the per-variable date-indexed table
// mappings. A store is constructed once by scanning a directory of dated
// files and is immutable afterwards; concurrent readers need no locking.
// Rebuilding from unchanged sources yields an identical mapping.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/raster"
	"github.com/calclimate/firedash/internal/table"
	"github.com/calclimate/firedash/internal/variable"
)

// ErrNotFound indicates no table exists for the requested date. The caller
// should surface an explicit "no data for this date" state, never an empty
// chart.
var ErrNotFound = eris.New("store: no data for date")

// Skipped records one file left out of a store build and why. File-level
// failures never abort a build; this report is the visibility into what
// earlier designs dropped silently.
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Store maps canonical date keys to normalized tables for one variable.
type Store struct {
	variable string
	tables   map[string]*table.Table
	skipped  []Skipped
}

// Build scans dir for files with the definition's extension, derives each
// file's date key from its name, and normalizes it into the mapping.
// Unparsable filenames and files that fail normalization are skipped and
// reported, never fatal to the build.
func Build(dir string, def variable.Definition, extract Extractor) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read directory %s", dir)
	}

	log := zap.L().With(
		zap.String("component", "store"),
		zap.String("variable", def.Name),
	)

	s := &Store{variable: def.Name, tables: map[string]*table.Table{}}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), def.Ext) {
			continue
		}
		date, ok := extract(e.Name())
		if !ok {
			s.skip(e.Name(), "filename has no parsable date")
			continue
		}

		tbl, err := readFile(filepath.Join(dir, e.Name()), date, def)
		if err != nil {
			switch {
			case eris.Is(err, raster.ErrEmptyData):
				s.skip(e.Name(), "no rows after filtering")
			case eris.Is(err, raster.ErrNormalization):
				s.skip(e.Name(), "normalization failed")
			default:
				s.skip(e.Name(), err.Error())
			}
			log.Warn("skipping file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		s.tables[date] = tbl
	}

	log.Info("store built",
		zap.Int("dates", len(s.tables)),
		zap.Int("skipped", len(s.skipped)),
	)
	return s, nil
}

func readFile(path, date string, def variable.Definition) (*table.Table, error) {
	if def.ReadFile != nil {
		return def.ReadFile(path, date)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return def.Read(f, date)
}

func (s *Store) skip(file, reason string) {
	s.skipped = append(s.skipped, Skipped{File: file, Reason: reason})
}

// Variable returns the canonical value column the store holds.
func (s *Store) Variable() string { return s.variable }

// Get returns the table for one date key.
func (s *Store) Get(date string) (*table.Table, error) {
	tbl, ok := s.tables[date]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "%s on %s", s.variable, date)
	}
	return tbl, nil
}

// Has reports whether a date key is present.
func (s *Store) Has(date string) bool {
	_, ok := s.tables[date]
	return ok
}

// Dates returns all date keys ascending.
func (s *Store) Dates() []string {
	dates := make([]string, 0, len(s.tables))
	for d := range s.tables {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Len returns the number of dates in the store.
func (s *Store) Len() int { return len(s.tables) }

// Skipped returns the build's skip report.
func (s *Store) Skipped() []Skipped { return s.skipped }

// All returns the full-concat view of the store in date order. Row dates
// preserve per-row provenance.
func (s *Store) All() (*table.Table, error) {
	tables := make([]*table.Table, 0, len(s.tables))
	for _, d := range s.Dates() {
		tables = append(tables, s.tables[d])
	}
	return table.Concat(tables...)
}
