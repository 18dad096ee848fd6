// Package server exposes the pipeline's tabular extracts to the external
// visualization layer as JSON over HTTP. The server owns no state of its own;
// every handler reads the immutable pipeline built at startup.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calclimate/firedash/internal/pipeline"
	"github.com/calclimate/firedash/internal/predict"
	"github.com/calclimate/firedash/internal/summary"
)

// Server answers the dashboard's data queries.
type Server struct {
	pipe     *pipeline.Pipeline
	clf      predict.Classifier
	features []string
	plots    []summary.Plot
	log      *zap.Logger
}

// Option configures optional server capabilities.
type Option func(*Server)

// WithClassifier enables the predict endpoint.
func WithClassifier(clf predict.Classifier, features []string) Option {
	return func(s *Server) {
		s.clf = clf
		s.features = features
	}
}

// WithPlots serves the pre-rendered plot artifact index.
func WithPlots(plots []summary.Plot) Option {
	return func(s *Server) { s.plots = plots }
}

// New builds a server over an already-built pipeline.
func New(pipe *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		pipe: pipe,
		log:  zap.L().With(zap.String("component", "server")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/variables", s.handleVariables)
		r.Get("/dates/common", s.handleCommonDates)
		r.Get("/series/{variable}", s.handleSeries)
		r.Get("/monthly/{variable}", s.handleMonthly)
		r.Get("/fire/frequency", s.handleFireFrequency)
		r.Get("/fire/events", s.handleFireEvents)
		r.Get("/join/{date}", s.handleJoin)
		r.Post("/predict", s.handlePredict)
		r.Get("/summary/precipitation.csv", s.handlePrecipSummary)
		r.Get("/plots", s.handlePlots)
	})
	return r
}

// requestID stamps each request with a UUID, honoring one supplied upstream.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", ww.Header().Get("X-Request-ID")),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
