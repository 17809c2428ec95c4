// Package report describes what a pipeline run consumed, dropped and produced.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/enrich"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/filter"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/table"
)

// Report is the accounting of one run.
type Report struct {
	RunID        string          `json:"run_id"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration_ns"`
	Observations int             `json:"observations"`
	Events       int             `json:"events"`
	Filter       filter.Stats    `json:"filter"`
	JoinLoss     enrich.JoinLoss `json:"join_loss"`
	Duplicates   int             `json:"duplicates"`
	CoverPerHit  float64         `json:"cover_per_hit"`
	TopN         int             `json:"top_n"`

	// EmptyGroups lists, per scale name, groups left without taxa after filtering.
	EmptyGroups map[string][]model.GroupKey `json:"empty_groups,omitempty"`

	// TableRows maps every produced table to its row count.
	TableRows map[string]int `json:"table_rows"`
}

// Table renders the report as a single-row table named name. The run id and
// timestamps stay out of it so equal input yields an equal table.
func (r Report) Table(name string) table.Table {
	empty := 0
	for _, keys := range r.EmptyGroups {
		empty += len(keys)
	}
	return table.Table{
		Name: name,
		Columns: []table.Column{
			{Name: "Observations", Kind: table.Int},
			{Name: "Events", Kind: table.Int},
			{Name: "Retained", Kind: table.Int},
			{Name: "ExcludedUnit", Kind: table.Int},
			{Name: "ExcludedTaxon", Kind: table.Int},
			{Name: "JoinLossRows", Kind: table.Int},
			{Name: "JoinLossEvents", Kind: table.String},
			{Name: "Duplicates", Kind: table.Int},
			{Name: "EmptyGroups", Kind: table.Int},
			{Name: "CoverPerHit", Kind: table.Float},
			{Name: "TopN", Kind: table.Int},
		},
		Rows: [][]any{{
			r.Observations,
			r.Events,
			r.Filter.Retained,
			r.Filter.ExcludedUnit,
			r.Filter.ExcludedTaxon,
			r.JoinLoss.Rows,
			joinIDs(r.JoinLoss.EventIDs),
			r.Duplicates,
			empty,
			r.CoverPerHit,
			r.TopN,
		}},
	}
}

// joinIDs lists at most 50 ids and counts the rest.
func joinIDs(ids []string) string {
	const limit = 50
	if len(ids) <= limit {
		return strings.Join(ids, ",")
	}
	return strings.Join(ids[:limit], ",") + ",+" + strconv.Itoa(len(ids)-limit)
}
