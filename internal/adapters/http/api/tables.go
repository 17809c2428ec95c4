package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
)

// TablesHandler serves the result tables of the latest run.
type TablesHandler struct {
	results  Results
	maxLimit int
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(results Results, maxLimit int) *TablesHandler {
	return &TablesHandler{results: results, maxLimit: maxLimit}
}

type tableSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type tablesResponse struct {
	RunID  string         `json:"run_id"`
	Tables []tableSummary `json:"tables"`
}

type tableResponse struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Total   int              `json:"total"`
	Rows    []map[string]any `json:"rows"`
}

// HandleList handles GET /tables requests.
func (h *TablesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	run, err := h.results.Latest(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp := tablesResponse{RunID: run.ID, Tables: make([]tableSummary, len(run.Tables))}
	for i, t := range run.Tables {
		resp.Tables[i] = tableSummary{Name: t.Name, Rows: len(t.Rows)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /tables/{name}?limit=N requests. Without limit every
// row is returned, up to the server maximum.
func (h *TablesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/tables/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	limit := h.maxLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit above %d", ErrBadRequest, h.maxLimit))
			return
		}
		limit = n
	}

	t, err := h.results.Table(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render(t, limit))
}

func render(t table.Table, limit int) tableResponse {
	n := min(limit, len(t.Rows))
	resp := tableResponse{
		Name:    t.Name,
		Columns: t.ColumnNames(),
		Total:   len(t.Rows),
		Rows:    make([]map[string]any, n),
	}
	for i, row := range t.Rows[:n] {
		obj := make(map[string]any, len(row))
		for j, v := range row {
			if d, ok := v.(time.Time); ok {
				v = d.Format("2006-01-02")
			}
			obj[t.Columns[j].Name] = v
		}
		resp.Rows[i] = obj
	}
	return resp
}
