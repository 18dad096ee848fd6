package fire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calclimate/firedash/internal/boundary"
)

func writeArchive(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "fire_2015.csv",
		"latitude,longitude,acq_date,confidence\n"+
			"34.1,-118.2,2015-08-01,95\n"+
			"36.5,-119.1,2015-08-02,40\n"+
			"45.0,-118.0,2015-08-03,80\n") // outside California box
	writeArchive(t, dir, "fire_2016.csv",
		"latitude,longitude,acq_date,confidence\n"+
			"35.2,-119.9,2016-01-15,60\n")
	writeArchive(t, dir, "readme.txt", "not a fire archive")

	a, err := LoadDir(dir, boundary.CaliforniaBox)
	require.NoError(t, err)

	assert.Equal(t, []string{"2015", "2016"}, a.Years())
	assert.Equal(t, 3, a.Total())

	evs := a.Year("2015")
	require.Len(t, evs, 2)
	assert.Equal(t, 0.95, evs[0].Confidence)
	assert.Equal(t, "2015", evs[0].Year)
	assert.Equal(t, "08", evs[0].Month)
}

func TestConfidenceRescaleBounds(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "fire_2015.csv",
		"latitude,longitude,acq_date,confidence\n"+
			"34.1,-118.2,2015-08-01,0\n"+
			"34.2,-118.3,2015-08-01,100\n")

	a, err := LoadDir(dir, boundary.CaliforniaBox)
	require.NoError(t, err)
	for _, ev := range a.Year("2015") {
		assert.GreaterOrEqual(t, ev.Confidence, 0.0)
		assert.LessOrEqual(t, ev.Confidence, 1.0)
	}
}

func TestOnDate(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "fire_2015.csv",
		"latitude,longitude,acq_date,confidence\n"+
			"34.1,-118.2,2015-08-01,95\n"+
			"34.3,-118.4,2015-08-01,50\n"+
			"34.5,-118.6,2015-08-02,99\n")

	a, err := LoadDir(dir, boundary.CaliforniaBox)
	require.NoError(t, err)

	all := a.OnDate("2015-08-01", 0)
	assert.Len(t, all, 2)

	confident := a.OnDate("2015-08-01", 0.95)
	require.Len(t, confident, 1)
	assert.Equal(t, 0.95, confident[0].Confidence)

	assert.Empty(t, a.OnDate("2014-08-01", 0))
}
