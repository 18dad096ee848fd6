// Package summary produces the downloadable artifacts: the monthly
// precipitation summary CSV, spreadsheet exports of derived series, and the
// index of pre-rendered plot images.
package summary

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/calclimate/firedash/internal/aggregate"
)

// PrecipitationRow is one line of the monthly precipitation summary. Column
// headers match the published CSV exactly.
type PrecipitationRow struct {
	Month string  `csv:"Month"`
	Total float64 `csv:"Total Precipitation"`
}

// WriteMonthlyPrecipitation encodes monthly totals in the summary's CSV
// layout.
func WriteMonthlyPrecipitation(w io.Writer, totals []aggregate.MonthlyPoint) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for _, p := range totals {
		row := PrecipitationRow{Month: p.Month, Total: p.Total}
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "summary: encode precipitation row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "summary: write precipitation summary")
}

// ReadMonthlyPrecipitation decodes a summary CSV produced by an earlier
// preprocessing run.
func ReadMonthlyPrecipitation(r io.Reader) ([]PrecipitationRow, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "summary: read precipitation summary")
	}
	var rows []PrecipitationRow
	for {
		var row PrecipitationRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "summary: decode precipitation row")
		}
		rows = append(rows, row)
	}
	return rows, nil
}
