package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calclimate/firedash/internal/pipeline"
	"github.com/calclimate/firedash/internal/predict"
	"github.com/calclimate/firedash/internal/summary"
)

const testBoundary = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"properties": {"name": "test"},
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[-125, 32], [-114, 32], [-114, 43], [-125, 43], [-125, 32]]]
		}
	}]
}`

func seedPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"processed_data/2015-08-01.csv":  "lat,lon,Qair_f_inst\n36.2,-120.4,0.004\n36.4,-120.1,0.006\n",
		"processed_data/2015-08-02.csv":  "lat,lon,Qair_f_inst\n36.2,-120.4,0.005\n",
		"processed/2015-08-01.csv":       "lat,lon,AvgSurfT_tavg\n36.1,-120.2,301.0\n",
		"processed/2015-08-02.csv":       "lat,lon,AvgSurfT_tavg\n36.1,-120.2,302.0\n",
		"daily/2015-08-01.csv":           "lat,lon,precipitationCal\n36.3,-120.3,1.5\n",
		"daily/2015-08-02.csv":           "lat,lon,precipitationCal\n36.3,-120.3,0.5\n",
		"monthly/2015-08.csv":            "lat,lon,precipitation\n36.0,-120.0,42.5\n",
		"csv/daily/2015-08-01.csv":       "lat,lon,SPEEDLML\n36.0,-120.0,3.5\n",
		"csv/daily/2015-08-02.csv":       "lat,lon,SPEEDLML\n36.0,-120.0,4.5\n",
		"raw_data/MOD04_L2.A2015213.csv": "Latitude,Longitude,Optical_Depth_Land_And_Ocean\n36.0,-120.0,0.25\n",
		"fire_data/fire_2015.csv": "latitude,longitude,acq_date,confidence\n" +
			"36.0,-120.0,2015-08-01,90\n36.5,-120.5,2015-08-01,99\n36.5,-120.5,2015-09-01,80\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	boundaryPath := filepath.Join(root, "boundary.geojson")
	require.NoError(t, os.WriteFile(boundaryPath, []byte(testBoundary), 0o644))

	p, err := pipeline.Build(context.Background(), pipeline.Sources{
		Root:         root,
		BoundaryPath: boundaryPath,
	})
	require.NoError(t, err)
	return p
}

func testRouter(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	return New(seedPipeline(t), opts...).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPassthrough(t *testing.T) {
	h := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
}

func TestVariables(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/variables", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t,
		[]any{"aod", "humidity", "precipitation", "temperature", "wind_speed"},
		body["variables"])
}

func TestCommonDates(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/dates/common", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"2015-08-01", "2015-08-02"}, body["dates"])
}

func TestSeries(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/series/humidity?window=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "humidity", body["variable"])
	assert.Equal(t, float64(2), body["window"])

	points := body["points"].([]any)
	require.Len(t, points, 2)
	first := points[0].(map[string]any)
	assert.Equal(t, "2015-08-01", first["date"])
	assert.InDelta(t, 0.005, first["mean"].(float64), 1e-12)
	assert.Nil(t, first["rolling_mean"])
	second := points[1].(map[string]any)
	assert.NotNil(t, second["rolling_mean"])
}

func TestSeriesErrors(t *testing.T) {
	h := testRouter(t)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/series/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/series/humidity?window=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthlyUsesDedicatedPrecipitationStore(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/monthly/precipitation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	months := body["months"].([]any)
	require.Len(t, months, 1)
	m := months[0].(map[string]any)
	assert.Equal(t, "2015-08", m["month"])
	assert.InDelta(t, 42.5, m["total"].(float64), 1e-12, "monthly product, not daily sum")
}

func TestMonthlyFromDailyStore(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/monthly/wind_speed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	months := body["months"].([]any)
	require.Len(t, months, 1)
	m := months[0].(map[string]any)
	assert.InDelta(t, 8.0, m["total"].(float64), 1e-12)
}

func TestFireFrequency(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/fire/frequency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]any)
	require.Len(t, rows, 12)
	var sum float64
	for _, r := range rows {
		sum += r.(map[string]any)["share"].(float64)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFireEvents(t *testing.T) {
	h := testRouter(t)
	rec, body := doJSON(t, h, http.MethodGet, "/api/fire/events?date=2015-08-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	rec, body = doJSON(t, h, http.MethodGet, "/api/fire/events?date=2015-08-01&min_confidence=0.95", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"], "confidence threshold applied")

	rec, _ = doJSON(t, h, http.MethodGet, "/api/fire/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/fire/events?date=2015-08-01&min_confidence=2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoin(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/join/2015-08-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.InDelta(t, 0.005, row["humidity"].(float64), 1e-12)
	assert.InDelta(t, 27.85, row["temperature"].(float64), 1e-9)
}

func TestJoinNotFound(t *testing.T) {
	rec, body := doJSON(t, testRouter(t), http.MethodGet, "/api/join/2010-01-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no data for this date", body["error"])
}

func TestPredict(t *testing.T) {
	clf := &predict.LinearClassifier{
		Features:  []string{"temperature", "precipitation", "humidity", "wind_speed"},
		Weights:   []float64{1, 1, 1, 1},
		Intercept: 0,
	}
	h := testRouter(t, WithClassifier(clf, clf.Features))

	rec, body := doJSON(t, h, http.MethodPost, "/api/predict",
		[]byte(`{"date": "2015-08-01"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Contains(t, row, "prediction")
	assert.Contains(t, row, "prob_class0")
	assert.Contains(t, row, "prob_class1")
}

func TestPredictErrors(t *testing.T) {
	clf := &predict.LinearClassifier{Weights: []float64{1}}
	h := testRouter(t, WithClassifier(clf, []string{"humidity"}))

	rec, _ := doJSON(t, h, http.MethodPost, "/api/predict", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, h, http.MethodPost, "/api/predict",
		[]byte(`{"date": "2010-01-01"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no data for this date", body["error"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/predict",
		[]byte(`{"date": "2015-08-01", "features": ["aod"]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	h = testRouter(t)
	rec, _ = doJSON(t, h, http.MethodPost, "/api/predict",
		[]byte(`{"date": "2015-08-01"}`))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPrecipSummaryCSV(t *testing.T) {
	h := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/summary/precipitation.csv", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Month,Total Precipitation", lines[0])
	assert.Equal(t, "2015-08,42.5", lines[1])
}

func TestPlots(t *testing.T) {
	plots := []summary.Plot{
		{Variable: "humidity", Date: "2015-08-01", Path: "/plots/humidity_2015-08-01.png"},
		{Variable: "humidity", Date: "2015-08-02", Path: "/plots/humidity_2015-08-02.png"},
		{Variable: "temperature", Date: "2015-08-01", Path: "/plots/temperature_2015-08-01.png"},
	}
	h := testRouter(t, WithPlots(plots))

	rec, body := doJSON(t, h, http.MethodGet, "/api/plots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["plots"].([]any), 3)

	rec, body = doJSON(t, h, http.MethodGet, "/api/plots?variable=humidity&date=2015-08-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := body["plots"].([]any)
	require.Len(t, got, 1)
	assert.Equal(t, "2015-08-02", got[0].(map[string]any)["date"])

	rec, body = doJSON(t, h, http.MethodGet, "/api/plots?variable=wind_speed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["plots"])
}
