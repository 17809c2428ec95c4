package model

// Observation is one taxon tallied at one sampling unit during one event.
type Observation struct {
	EventID        string
	SamplingUnitID string // TransectID, e.g. "A", "B", "C" or the composite "NAWMA"
	Taxon          string
	HitCount       int
}

// CoveredObservation carries the percent cover derived from HitCount and the
// per-hit constant it was derived with.
type CoveredObservation struct {
	Observation
	PercentCover float64
	CoverPerHit  float64
}

// UnitKey identifies a physical sampling unit across events.
type UnitKey struct {
	EventID        string
	SamplingUnitID string
}

// Unit returns the sampling unit the observation was recorded at.
func (o Observation) Unit() UnitKey {
	return UnitKey{EventID: o.EventID, SamplingUnitID: o.SamplingUnitID}
}
