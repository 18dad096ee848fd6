// Package fire ingests MODIS fire-detection point archives. Detections come
// one CSV per year (fire_<YEAR>.csv) with raw 0-100 confidence; they are
// rescaled to [0, 1] and restricted to the rough California envelope.
package fire

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/boundary"
	"github.com/calclimate/firedash/internal/raster"
)

// Event is one fire detection.
type Event struct {
	Latitude   float64 `csv:"latitude" json:"latitude"`
	Longitude  float64 `csv:"longitude" json:"longitude"`
	AcqDate    string  `csv:"acq_date" json:"acq_date"`
	Confidence float64 `csv:"confidence" json:"confidence"`
	Year       string  `csv:"-" json:"year"`
	Month      string  `csv:"-" json:"month"`
}

// Archive holds all ingested fire events grouped by year. Built once at
// startup and read-only afterwards.
type Archive struct {
	byYear map[string][]Event
}

var yearFileRe = regexp.MustCompile(`^fire_(\d{4})\.csv$`)

// LoadDir scans a directory of per-year fire CSVs. Files not matching the
// fire_<YEAR>.csv pattern are skipped.
func LoadDir(dir string, box boundary.Box) (*Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "fire: read directory %s", dir)
	}

	log := zap.L().With(zap.String("component", "fire"))
	a := &Archive{byYear: map[string][]Event{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := yearFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			log.Debug("skipping non-archive file", zap.String("file", e.Name()))
			continue
		}
		year := m[1]

		f, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "fire: open %s", e.Name())
		}
		events, err := readEvents(f, year, box)
		_ = f.Close()
		if err != nil {
			log.Warn("skipping unreadable fire archive", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		a.byYear[year] = events
		log.Info("fire archive loaded", zap.String("year", year), zap.Int("events", len(events)))
	}
	return a, nil
}

// readEvents decodes one year's detections, rescaling confidence and
// stamping year/month from the acquisition date.
func readEvents(r io.Reader, year string, box boundary.Box) ([]Event, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(raster.ErrNormalization, "fire: empty archive")
	}

	var events []Event
	for {
		var ev Event
		if err := dec.Decode(&ev); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(raster.ErrNormalization, "fire: decode row: %v", err)
		}
		if !box.Contains(ev.Latitude, ev.Longitude) {
			continue
		}
		if len(ev.AcqDate) < 7 {
			continue
		}
		ev.Confidence = raster.ConfidenceFraction(ev.Confidence)
		ev.Year = year
		ev.Month = ev.AcqDate[5:7]
		events = append(events, ev)
	}
	return events, nil
}

// Years lists the archive's years ascending.
func (a *Archive) Years() []string {
	years := make([]string, 0, len(a.byYear))
	for y := range a.byYear {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

// Year returns all events for one year.
func (a *Archive) Year(year string) []Event {
	return a.byYear[year]
}

// OnDate returns the events acquired on one calendar day, optionally keeping
// only detections at or above a minimum normalized confidence.
func (a *Archive) OnDate(date string, minConfidence float64) []Event {
	if len(date) < 4 {
		return nil
	}
	var out []Event
	for _, ev := range a.byYear[date[:4]] {
		if ev.AcqDate == date && ev.Confidence >= minConfidence {
			out = append(out, ev)
		}
	}
	return out
}

// Total returns the number of events across all years.
func (a *Archive) Total() int {
	var n int
	for _, evs := range a.byYear {
		n += len(evs)
	}
	return n
}
