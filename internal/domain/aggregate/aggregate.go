// Package aggregate rolls cover-valued observations up to one of three scales.
//
// Every group gets a single denominator: the number of distinct sampling
// units, identified by (EventID, SamplingUnitID), among all observations
// mapped to the group. It is counted before the per-taxon split, so adding
// a taxon to an already sampled unit never changes it.
//
// Hits are summed as integers and converted to cover once per record, so taxa
// with equal hits in a group get identical cover whatever the row order.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/failure"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

type group struct {
	units       map[model.UnitKey]struct{}
	hits        map[string]int
	coverPerHit float64
}

// Aggregate produces one CoverRecord per (group, taxon). The event index is
// only consulted for the monitoring cycle and community scales, where the
// join must happen before grouping; it may be nil for ScaleEvent.
func Aggregate(scale model.Scale, obs []model.CoveredObservation, index *model.EventIndex) ([]model.CoverRecord, error) {
	op := "aggregate." + scale.String()

	groups := make(map[model.GroupKey]*group)
	for i, o := range obs {
		key, err := keyOf(scale, o.Observation, index)
		if err != nil {
			return nil, failure.WrapKind(op, failure.ErrJoinMismatch, err).WithRow(i + 1)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{units: make(map[model.UnitKey]struct{}), hits: make(map[string]int), coverPerHit: o.CoverPerHit}
			groups[key] = g
		}
		g.units[o.Unit()] = struct{}{}
		g.hits[o.Taxon] += o.HitCount
	}

	out := make([]model.CoverRecord, 0, len(obs))
	for key, g := range groups {
		n := len(g.units)
		for taxon, hits := range g.hits {
			total := float64(hits) * g.coverPerHit
			out = append(out, model.CoverRecord{
				Scale:        scale,
				Key:          key,
				Taxon:        taxon,
				TotalHits:    hits,
				TotalCover:   total,
				UnitCount:    n,
				AverageCover: total / float64(n),
			})
		}
	}
	slices.SortFunc(out, func(a, b model.CoverRecord) int {
		if c := a.Key.Compare(b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Taxon, b.Taxon)
	})
	return out, nil
}

// Keys returns the distinct group keys the observations map to, in order.
// Observations whose event is unknown are skipped.
func Keys(scale model.Scale, obs []model.Observation, index *model.EventIndex) []model.GroupKey {
	seen := make(map[model.GroupKey]struct{})
	for _, o := range obs {
		if key, err := keyOf(scale, o, index); err == nil {
			seen[key] = struct{}{}
		}
	}
	keys := make([]model.GroupKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, model.GroupKey.Compare)
	return keys
}

// EmptyGroups returns the keys present before filtering that produced no
// records. They are reported, not treated as errors.
func EmptyGroups(scale model.Scale, unfiltered []model.Observation, records []model.CoverRecord, index *model.EventIndex) []model.GroupKey {
	have := make(map[model.GroupKey]struct{}, len(records))
	for _, r := range records {
		have[r.Key] = struct{}{}
	}
	var empty []model.GroupKey
	for _, k := range Keys(scale, unfiltered, index) {
		if _, ok := have[k]; !ok {
			empty = append(empty, k)
		}
	}
	return empty
}

func keyOf(scale model.Scale, o model.Observation, index *model.EventIndex) (model.GroupKey, error) {
	if scale == model.ScaleEvent {
		return model.GroupKey{EventID: o.EventID}, nil
	}
	if index == nil {
		return model.GroupKey{}, errUnknownEvent(o.EventID)
	}
	e, ok := index.Lookup(o.EventID)
	if !ok {
		return model.GroupKey{}, errUnknownEvent(o.EventID)
	}
	return model.KeyFor(scale, e), nil
}
