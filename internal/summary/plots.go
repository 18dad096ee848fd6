package summary

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
)

// Plot is one pre-rendered chart image, keyed by variable and date.
type Plot struct {
	Variable string `json:"variable"`
	Date     string `json:"date"`
	Path     string `json:"path"`
}

var plotNameRe = regexp.MustCompile(`^([a-z_]+)_(\d{4}-\d{2}-\d{2})\.png$`)

// IndexPlots scans a directory of <variable>_<date>.png artifacts. Files not
// matching the naming convention are ignored.
func IndexPlots(dir string) ([]Plot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "summary: read plot directory %s", dir)
	}

	var plots []Plot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := plotNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		plots = append(plots, Plot{
			Variable: m[1],
			Date:     m[2],
			Path:     filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(plots, func(i, j int) bool {
		if plots[i].Variable != plots[j].Variable {
			return plots[i].Variable < plots[j].Variable
		}
		return plots[i].Date < plots[j].Date
	})
	return plots, nil
}

// FindPlot returns the artifact for one variable and date, if rendered.
func FindPlot(plots []Plot, variable, date string) (Plot, bool) {
	for _, p := range plots {
		if p.Variable == variable && p.Date == date {
			return p, true
		}
	}
	return Plot{}, false
}
