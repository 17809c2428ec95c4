// Package api serves the results of the latest pipeline runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/mq/queue"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/repository"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
)

const defaultMaxLimit = 10000

// Results exposes the published runs.
type Results interface {
	Latest(ctx context.Context) (repository.Run, error)
	Table(ctx context.Context, name string) (table.Table, error)
	TableNames(ctx context.Context) ([]string, error)
	Runs(ctx context.Context) []repository.Summary
	Run(ctx context.Context, id string) (repository.Run, error)
}

// Runner triggers a pipeline run.
type Runner interface {
	Trigger(ctx context.Context) (report.Report, error)
}

// Scheduler queues a run for asynchronous execution. It reports false when
// the queue cannot take another request.
type Scheduler interface {
	Schedule(ctx context.Context) (queue.Request, bool)
}

// Server wires HTTP routes for the results API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	tablesHandler *TablesHandler
	runsHandler   *RunsHandler
}

// Option configures the server.
type Option func(*serverOptions)

type serverOptions struct {
	maxLimit  int
	scheduler Scheduler
}

// WithMaxLimit caps the limit query parameter of table reads.
func WithMaxLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithScheduler enables POST /runs?async=true.
func WithScheduler(s Scheduler) Option {
	return func(o *serverOptions) {
		o.scheduler = s
	}
}

// NewServer creates a new API server with all handlers. runner may be nil,
// in which case POST /runs answers 404.
func NewServer(results Results, runner Runner, opts ...Option) *Server {
	o := serverOptions{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(results),
		tablesHandler: NewTablesHandler(results, o.maxLimit),
		runsHandler:   NewRunsHandler(results, runner, o.scheduler),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/tables", MetricsMiddleware(s.tablesHandler.HandleList, "tables"))
	mux.HandleFunc("/tables/", MetricsMiddleware(s.tablesHandler.HandleGet, "table"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleRun, "run"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps repository errors to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNoRun):
		writeError(w, http.StatusNotFound, "no_run", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// writeRunError maps pipeline failure kinds to status codes.
func writeRunError(w http.ResponseWriter, err error) {
	kind := failure.KindOf(err)
	switch {
	case errors.Is(err, failure.ErrConfiguration),
		errors.Is(err, failure.ErrInvalidData),
		errors.Is(err, failure.ErrJoinMismatch):
		writeError(w, http.StatusUnprocessableEntity, kind, err)
	case errors.Is(err, failure.ErrExternalIO):
		writeError(w, http.StatusBadGateway, kind, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
