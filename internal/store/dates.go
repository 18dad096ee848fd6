package store

import (
	"regexp"
	"strconv"
	"time"
)

// Extractor derives a canonical date key from a filename. Returning false
// marks the filename unparsable; the build skips and reports it.
type Extractor func(filename string) (string, bool)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.`)
	yearMonthRe = regexp.MustCompile(`^(\d{4}-\d{2})\.`)
	compactRe   = regexp.MustCompile(`(?:^|\.|_)(\d{8})(?:\.|_|$)`)
	julianRe    = regexp.MustCompile(`A(\d{4})(\d{3})`)
)

// FirstOf tries extractors in order and keeps the first match. Used where a
// directory mixes naming conventions, e.g. daily extracts alongside
// granule-named files.
func FirstOf(extractors ...Extractor) Extractor {
	return func(name string) (string, bool) {
		for _, e := range extractors {
			if date, ok := e(name); ok {
				return date, true
			}
		}
		return "", false
	}
}

// ISODate matches files named by calendar day, e.g. 2015-08-01.csv.
func ISODate(name string) (string, bool) {
	m := isoDateRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

// YearMonth matches monthly products named e.g. 2015-08.csv.
func YearMonth(name string) (string, bool) {
	m := yearMonthRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse("2006-01", m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

// CompactDate matches an embedded YYYYMMDD run, as in
// MERRA2_400.tavg1_2d_flx_Nx.20150801.nc4, normalizing to YYYY-MM-DD.
func CompactDate(name string) (string, bool) {
	m := compactRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	t, err := time.Parse("20060102", m[1])
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// JulianDate matches the MODIS A<year><day-of-year> convention, as in
// MOD04_L2.A2015213, normalizing to YYYY-MM-DD.
func JulianDate(name string) (string, bool) {
	m := julianRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if day < 1 || day > 366 {
		return "", false
	}
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	if t.Year() != year {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
