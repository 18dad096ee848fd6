package summary

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/calclimate/firedash/internal/aggregate"
)

// Workbook accumulates derived series as spreadsheet sheets for a single
// download artifact.
type Workbook struct {
	file *xlsx.File
}

// NewWorkbook returns an empty workbook.
func NewWorkbook() *Workbook {
	return &Workbook{file: xlsx.NewFile()}
}

// AddDailySeries adds a sheet of {date, mean, rolling mean} rows. Dates
// without a full trailing window leave the rolling cell blank.
func (w *Workbook) AddDailySeries(name string, points []aggregate.DailyPoint) error {
	sheet, err := w.file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "summary: add sheet %s", name)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Date", "Mean", "Rolling Mean"} {
		header.AddCell().SetString(h)
	}
	for _, p := range points {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Date)
		row.AddCell().SetFloat(p.Mean)
		cell := row.AddCell()
		if p.RollingMean != nil {
			cell.SetFloat(*p.RollingMean)
		}
	}
	return nil
}

// AddMonthlyTotals adds a sheet of {month, total} rows.
func (w *Workbook) AddMonthlyTotals(name string, totals []aggregate.MonthlyPoint) error {
	sheet, err := w.file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "summary: add sheet %s", name)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Month", "Total"} {
		header.AddCell().SetString(h)
	}
	for _, p := range totals {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Month)
		row.AddCell().SetFloat(p.Total)
	}
	return nil
}

// AddFireFrequency adds a sheet of {year, month, share} rows.
func (w *Workbook) AddFireFrequency(name string, rows []aggregate.FrequencyRow) error {
	sheet, err := w.file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "summary: add sheet %s", name)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Year", "Month", "Share"} {
		header.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Year)
		row.AddCell().SetString(r.MonthName)
		row.AddCell().SetFloat(r.Share)
	}
	return nil
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	if len(w.file.Sheets) == 0 {
		return eris.New("summary: workbook has no sheets")
	}
	return eris.Wrapf(w.file.Save(path), "summary: save workbook %s", path)
}

// sheetNameLimit is the spreadsheet format's 31-character sheet name cap.
const sheetNameLimit = 31

// SheetName derives a legal sheet name from a variable and qualifier.
func SheetName(variable, qualifier string) string {
	name := variable + " " + qualifier
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}
	return name
}
