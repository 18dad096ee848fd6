package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/aggregate"
	"github.com/calclimate/firedash/internal/pipeline"
	"github.com/calclimate/firedash/internal/predict"
	"github.com/calclimate/firedash/internal/store"
	"github.com/calclimate/firedash/internal/summary"
	"github.com/calclimate/firedash/internal/table"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVariables(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"variables": s.pipe.Variables()})
}

func (s *Server) handleCommonDates(w http.ResponseWriter, _ *http.Request) {
	dates := s.pipe.CommonDates()
	if dates == nil {
		dates = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "variable")
	st, err := s.pipe.Store(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown variable")
		return
	}

	window := aggregate.Window
	if q := r.URL.Query().Get("window"); q != "" {
		window, err = strconv.Atoi(q)
		if err != nil || window < 1 {
			s.writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
	}

	points, err := aggregate.DailySeries(st, name, window)
	if err != nil {
		s.log.Error("daily series", zap.String("variable", name), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "series computation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"variable": name,
		"window":   window,
		"points":   points,
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "variable")

	// Precipitation ships a dedicated monthly product; everything else is
	// summed from the daily store.
	var st *store.Store
	if name == pipeline.VarPrecipitation && s.pipe.Monthly() != nil && s.pipe.Monthly().Len() > 0 {
		st = s.pipe.Monthly()
	} else {
		var err error
		st, err = s.pipe.Store(name)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "unknown variable")
			return
		}
	}

	totals, err := aggregate.MonthlyTotals(st, name)
	if err != nil {
		s.log.Error("monthly totals", zap.String("variable", name), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "monthly totals failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"variable": name, "months": totals})
}

func (s *Server) handleFireFrequency(w http.ResponseWriter, _ *http.Request) {
	rows := aggregate.MonthlyFireFrequency(s.pipe.Fires())
	s.writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleFireEvents(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	var minConfidence float64
	if q := r.URL.Query().Get("min_confidence"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v < 0 || v > 1 {
			s.writeError(w, http.StatusBadRequest, "min_confidence must be in [0, 1]")
			return
		}
		minConfidence = v
	}
	events := s.pipe.Fires().OnDate(date, minConfidence)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":   date,
		"count":  len(events),
		"events": events,
	})
}

// tableJSON flattens a table into one JSON object per row.
func tableJSON(t *table.Table) []map[string]any {
	rows := make([]map[string]any, 0, t.Len())
	for _, r := range t.Rows {
		obj := map[string]any{
			"latitude":  r.Latitude,
			"longitude": r.Longitude,
			"date":      r.Date,
		}
		for k, v := range r.Values {
			obj[k] = v
		}
		rows = append(rows, obj)
	}
	return rows
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	joined, err := s.pipe.JoinDate(date)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no data for this date")
			return
		}
		s.log.Error("join", zap.String("date", date), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "join failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":    date,
		"columns": joined.Columns,
		"rows":    tableJSON(joined),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.clf == nil {
		s.writeError(w, http.StatusNotImplemented, "no classifier configured")
		return
	}

	var req struct {
		Date     string   `json:"date"`
		Features []string `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Date == "" {
		s.writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	features := req.Features
	if len(features) == 0 {
		features = s.features
	}

	joined, err := s.pipe.JoinDate(req.Date)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no data for this date")
			return
		}
		s.log.Error("predict join", zap.String("date", req.Date), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "join failed")
		return
	}

	out, err := predict.Predict(joined, features, s.clf)
	if err != nil {
		if eris.Is(err, predict.ErrFeatureMismatch) {
			s.writeError(w, http.StatusUnprocessableEntity, "feature column missing for this date")
			return
		}
		s.log.Error("predict", zap.String("date", req.Date), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":    req.Date,
		"columns": out.Columns,
		"rows":    tableJSON(out),
	})
}

func (s *Server) handlePrecipSummary(w http.ResponseWriter, _ *http.Request) {
	monthly := s.pipe.Monthly()
	if monthly == nil || monthly.Len() == 0 {
		s.writeError(w, http.StatusNotFound, "no monthly precipitation data")
		return
	}
	totals, err := aggregate.MonthlyTotals(monthly, pipeline.VarPrecipitation)
	if err != nil {
		s.log.Error("precipitation summary", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="monthly_precipitation_summary.csv"`)
	if err := summary.WriteMonthlyPrecipitation(w, totals); err != nil {
		s.log.Error("write precipitation summary", zap.Error(err))
	}
}

func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	variable := r.URL.Query().Get("variable")
	date := r.URL.Query().Get("date")

	plots := s.plots
	if variable != "" || date != "" {
		filtered := make([]summary.Plot, 0, len(plots))
		for _, p := range plots {
			if variable != "" && p.Variable != variable {
				continue
			}
			if date != "" && p.Date != date {
				continue
			}
			filtered = append(filtered, p)
		}
		plots = filtered
	}
	if plots == nil {
		plots = []summary.Plot{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"plots": plots})
}
