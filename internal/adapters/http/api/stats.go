package api

import (
	"net/http"
)

// StatsHandler serves the report of the latest run.
type StatsHandler struct {
	results Results
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(results Results) *StatsHandler {
	return &StatsHandler{results: results}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	run, err := h.results.Latest(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run.Report)
}
