package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndColumn(t *testing.T) {
	tbl := New("humidity")
	tbl.Append(34.0, -118.0, "2015-08-01", 0.004)
	tbl.Append(34.0, -118.0, "2015-08-01", 0.006)

	require.Equal(t, 2, tbl.Len())

	col, err := tbl.Column("humidity")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.004, 0.006}, col)

	_, err = tbl.Column("temperature")
	assert.Error(t, err)
}

func TestFilterDoesNotMutate(t *testing.T) {
	tbl := New("v")
	tbl.Append(1, 1, "2020-01-01", 10)
	tbl.Append(2, 2, "2020-01-01", 20)

	kept := tbl.Filter(func(r Row) bool { return r.Values["v"] > 15 })
	assert.Equal(t, 1, kept.Len())
	assert.Equal(t, 2, tbl.Len())
}

func TestConcatPreservesProvenance(t *testing.T) {
	a := New("v")
	a.Append(1, 1, "2020-01-01", 1)
	b := New("v")
	b.Append(2, 2, "2020-01-02", 2)

	all, err := Concat(a, b)
	require.NoError(t, err)
	require.Equal(t, 2, all.Len())
	assert.Equal(t, "2020-01-01", all.Rows[0].Date)
	assert.Equal(t, "2020-01-02", all.Rows[1].Date)
}

func TestConcatRejectsMismatchedColumns(t *testing.T) {
	a := New("v")
	b := New("w")
	_, err := Concat(a, b)
	assert.Error(t, err)
}

func TestSortByDate(t *testing.T) {
	tbl := New("v")
	tbl.Append(1, 1, "2020-02-01", 1)
	tbl.Append(1, 1, "2020-01-15", 2)
	tbl.Append(1, 1, "2020-01-02", 3)
	tbl.SortByDate()

	assert.Equal(t, "2020-01-02", tbl.Rows[0].Date)
	assert.Equal(t, "2020-01-15", tbl.Rows[1].Date)
	assert.Equal(t, "2020-02-01", tbl.Rows[2].Date)
}
