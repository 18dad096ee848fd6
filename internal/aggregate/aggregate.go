// Package aggregate derives scalar time series from the date-indexed stores:
// daily means with trailing rolling averages, monthly totals, and the per-year
// monthly fire frequency table behind the animated bar chart.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/fire"
	"github.com/calclimate/firedash/internal/store"
)

// Window is the trailing rolling-average window in days.
const Window = 30

// DailyPoint is one entry of a daily series. RollingMean is nil for the first
// Window-1 dates, where the trailing window is not yet full.
type DailyPoint struct {
	Date        string   `json:"date"`
	Mean        float64  `json:"mean"`
	RollingMean *float64 `json:"rolling_mean"`
}

// DailySeries averages every row of each date and computes a trailing
// rolling mean over the resulting per-day series, ordered ascending by date.
func DailySeries(s *store.Store, column string, window int) ([]DailyPoint, error) {
	if window < 1 {
		return nil, eris.Errorf("aggregate: window %d out of range", window)
	}

	dates := s.Dates()
	points := make([]DailyPoint, 0, len(dates))
	for _, d := range dates {
		tbl, err := s.Get(d)
		if err != nil {
			return nil, err
		}
		vals, err := tbl.Column(column)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: daily series for %s", d)
		}
		points = append(points, DailyPoint{Date: d, Mean: mean(vals)})
	}

	// Trailing window: rolling_mean[i] = mean(mean[i-window+1..i]).
	var sum float64
	for i := range points {
		sum += points[i].Mean
		if i >= window {
			sum -= points[i-window].Mean
		}
		if i >= window-1 {
			rm := sum / float64(window)
			points[i].RollingMean = &rm
		}
	}
	return points, nil
}

// MonthlyPoint is one entry of a monthly-total series.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// MonthlyTotals groups the store's rows by calendar month and sums the value
// column. Date keys may be daily (YYYY-MM-DD) or already monthly (YYYY-MM).
func MonthlyTotals(s *store.Store, column string) ([]MonthlyPoint, error) {
	totals := map[string]float64{}
	for _, d := range s.Dates() {
		tbl, err := s.Get(d)
		if err != nil {
			return nil, err
		}
		vals, err := tbl.Column(column)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: monthly totals for %s", d)
		}
		month := d
		if len(month) > 7 {
			month = month[:7]
		}
		for _, v := range vals {
			totals[month] += v
		}
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthlyPoint, len(months))
	for i, m := range months {
		out[i] = MonthlyPoint{Month: m, Total: totals[m]}
	}
	return out, nil
}

// monthNames is the fixed frame ordering for the frequency table. Every year
// carries all twelve entries so animation frames line up.
var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FrequencyRow is one (year, month) share of that year's fire detections.
type FrequencyRow struct {
	Year      string  `json:"year"`
	MonthName string  `json:"month_name"`
	Share     float64 `json:"share"`
}

// MonthlyFireFrequency computes, for each year in the archive, the fraction
// of the year's detections falling in each calendar month. Months without
// detections appear with share 0; for a year with any detections the twelve
// shares sum to 1.
func MonthlyFireFrequency(a *fire.Archive) []FrequencyRow {
	var rows []FrequencyRow
	for _, year := range a.Years() {
		events := a.Year(year)
		counts := map[string]int{}
		for _, ev := range events {
			counts[ev.Month]++
		}
		total := float64(len(events))
		for i, name := range monthNames {
			var share float64
			if total > 0 {
				share = float64(counts[fmt.Sprintf("%02d", i+1)]) / total
			}
			rows = append(rows, FrequencyRow{Year: year, MonthName: name, Share: share})
		}
	}
	return rows
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
