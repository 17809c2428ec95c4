// Package enrich joins aggregated records with event attributes.
package enrich

import (
	"slices"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

// JoinLoss describes the observations dropped by the inner join with events.
type JoinLoss struct {
	Rows     int      `json:"rows"`
	EventIDs []string `json:"event_ids,omitempty"` // distinct, sorted
}

// Partition splits observations into those whose event is known and those
// whose event is not. Order is preserved on both sides.
func Partition(obs []model.Observation, index *model.EventIndex) (matched, unmatched []model.Observation) {
	matched = make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if _, ok := index.Lookup(o.EventID); ok {
			matched = append(matched, o)
			continue
		}
		unmatched = append(unmatched, o)
	}
	return matched, unmatched
}

// Loss summarises unmatched observations.
func Loss(unmatched []model.Observation) JoinLoss {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, o := range unmatched {
		if _, ok := seen[o.EventID]; ok {
			continue
		}
		seen[o.EventID] = struct{}{}
		ids = append(ids, o.EventID)
	}
	slices.Sort(ids)
	return JoinLoss{Rows: len(unmatched), EventIDs: ids}
}

// Events attaches the event of every event scale record. Order is kept.
func Events(records []model.RankedRecord, index *model.EventIndex) ([]model.EventCoverRecord, error) {
	out := make([]model.EventCoverRecord, len(records))
	for i, r := range records {
		e, ok := index.Lookup(r.Key.EventID)
		if !ok {
			return nil, failure.NewKind("enrich.events", failure.ErrJoinMismatch).WithGroup(r.Key.String())
		}
		out[i] = model.EventCoverRecord{RankedRecord: r, Event: e}
	}
	return out, nil
}
