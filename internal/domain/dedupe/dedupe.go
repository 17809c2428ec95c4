// Package dedupe enforces that (event, sampling unit, taxon) is unique in an import.
package dedupe

import (
	"sync"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

// ObservationKey identifies one tally. It is a struct so that distinct
// field values can never collide the way concatenated strings can.
type ObservationKey struct {
	EventID        string
	SamplingUnitID string
	Taxon          string
}

// KeyOf returns the uniqueness key of an observation.
func KeyOf(o model.Observation) ObservationKey {
	return ObservationKey{EventID: o.EventID, SamplingUnitID: o.SamplingUnitID, Taxon: o.Taxon}
}

// Deduper records seen observation keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key ObservationKey) bool

	Size() int64
}

// inMemoryDeduper keeps every key for the lifetime of one import. Eviction
// would let a late duplicate through, so the set is unbounded.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[ObservationKey]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &inMemoryDeduper{seen: make(map[ObservationKey]struct{}, o.expected)}
}

func (d *inMemoryDeduper) SeenAndRecord(key ObservationKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Size returns the number of distinct keys recorded.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// Duplicate is a repeated observation and its 1-based row in the import.
type Duplicate struct {
	Row int
	Key ObservationKey
}

// Scan returns every observation whose key already appeared earlier, in row order.
func Scan(obs []model.Observation) []Duplicate {
	d := NewInMemoryDeduper(WithExpectedSize(len(obs)))
	var dups []Duplicate
	for i, o := range obs {
		k := KeyOf(o)
		if d.SeenAndRecord(k) {
			dups = append(dups, Duplicate{Row: i + 1, Key: k})
		}
	}
	return dups
}
