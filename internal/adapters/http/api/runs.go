package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/report"
)

// RunsHandler lists retained runs and triggers new ones.
type RunsHandler struct {
	results   Results
	runner    Runner
	scheduler Scheduler
}

// NewRunsHandler creates a new runs handler. scheduler may be nil.
func NewRunsHandler(results Results, runner Runner, scheduler Scheduler) *RunsHandler {
	return &RunsHandler{results: results, runner: runner, scheduler: scheduler}
}

type acceptedResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

// HandleRuns handles GET /runs and POST /runs requests.
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.results.Runs(r.Context()))
	case http.MethodPost:
		async := false
		if v := r.URL.Query().Get("async"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
				return
			}
			async = b
		}
		if async {
			h.schedule(w, r)
			return
		}
		if h.runner == nil {
			writeError(w, http.StatusNotFound, "not_found", ErrRunnerMissing)
			return
		}
		rep, err := h.runner.Trigger(r.Context())
		if err != nil {
			writeRunError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rep)
	default:
		http.NotFound(w, r)
	}
}

type runResponse struct {
	ID          string        `json:"id"`
	CompletedAt time.Time     `json:"completed_at"`
	Report      report.Report `json:"report"`
}

// HandleRun handles GET /runs/{id} requests.
func (h *RunsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	run, err := h.results.Run(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{ID: run.ID, CompletedAt: run.CompletedAt, Report: run.Report})
}

func (h *RunsHandler) schedule(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, http.StatusNotFound, "not_found", ErrRunnerMissing)
		return
	}
	req, ok := h.scheduler.Schedule(r.Context())
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", RequestID: req.ID})
}
