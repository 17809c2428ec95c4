// Package filter removes non-vegetation sampling units and excluded taxa.
package filter

import (
	"slices"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

// Stats counts what Apply kept and why it dropped the rest. A row excluded
// for both its unit and its taxon is counted under ExcludedUnit.
type Stats struct {
	Input         int `json:"input"`
	Retained      int `json:"retained"`
	ExcludedUnit  int `json:"excluded_unit"`
	ExcludedTaxon int `json:"excluded_taxon"`
}

// Filter holds the exclusion sets. The zero value keeps everything.
type Filter struct {
	taxa  map[string]struct{}
	units map[string]struct{}
}

// Option configures a Filter.
type Option func(*Filter)

// WithExcludedTaxa adds taxa to drop, e.g. "Litter", "Bare Ground".
func WithExcludedTaxa(taxa ...string) Option {
	return func(f *Filter) {
		for _, t := range taxa {
			f.taxa[t] = struct{}{}
		}
	}
}

// WithExcludedUnits adds sampling unit ids to drop, e.g. the composite "NAWMA" unit.
func WithExcludedUnits(units ...string) Option {
	return func(f *Filter) {
		for _, u := range units {
			f.units[u] = struct{}{}
		}
	}
}

// New builds a Filter from options.
func New(opts ...Option) *Filter {
	f := &Filter{
		taxa:  make(map[string]struct{}),
		units: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply returns the observations whose unit and taxon are both allowed.
// Order is preserved and rows with a zero HitCount are kept.
func (f *Filter) Apply(obs []model.Observation) ([]model.Observation, Stats) {
	st := Stats{Input: len(obs)}
	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if _, ok := f.units[o.SamplingUnitID]; ok {
			st.ExcludedUnit++
			continue
		}
		if _, ok := f.taxa[o.Taxon]; ok {
			st.ExcludedTaxon++
			continue
		}
		out = append(out, o)
	}
	st.Retained = len(out)
	return out, st
}

// ExcludedTaxa returns the excluded taxa sorted.
func (f *Filter) ExcludedTaxa() []string { return sortedKeys(f.taxa) }

// ExcludedUnits returns the excluded unit ids sorted.
func (f *Filter) ExcludedUnits() []string { return sortedKeys(f.units) }

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
