// Package ranking orders cover records within their group and selects the top N.
//
// Within a group records are ordered by AverageCover descending, then Taxon
// ascending. Every taxon of a group shares the denominator, so the integer
// TotalHits decides the cover order and float rounding never splits a tie.
// Ranks are dense: equal cover shares a rank and the next distinct value takes
// the following integer.
package ranking

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

// ErrInvalidLimit is returned by TopN for n < 1.
var ErrInvalidLimit = errors.New("top-n limit must be at least 1")

// Compare is the output order: group key, cover desc, Taxon asc.
func Compare(a, b model.CoverRecord) int {
	if c := a.Key.Compare(b.Key); c != 0 {
		return c
	}
	if c := cmp.Compare(b.TotalHits, a.TotalHits); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AverageCover, a.AverageCover); c != 0 {
		return c
	}
	return cmp.Compare(a.Taxon, b.Taxon)
}

// Rank returns every record ordered by Compare with its dense rank.
// The input slice is not modified.
func Rank(records []model.CoverRecord) []model.RankedRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, Compare)

	out := make([]model.RankedRecord, len(sorted))
	rank := 0
	for i, r := range sorted {
		switch {
		case i == 0 || r.Key != sorted[i-1].Key:
			rank = 1
		case !sameCover(r, sorted[i-1]):
			rank++
		}
		out[i] = model.RankedRecord{CoverRecord: r, Rank: rank}
	}
	return out
}

func sameCover(a, b model.CoverRecord) bool {
	return a.TotalHits == b.TotalHits && a.AverageCover == b.AverageCover
}

// TopN returns the first n records of every group in Rank order. Groups with
// fewer than n records are returned whole. At a tie on the boundary the
// lower taxon name wins.
func TopN(records []model.CoverRecord, n int) ([]model.RankedRecord, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	return Select(Rank(records), n), nil
}

// Select keeps the first n already ranked records of every group.
func Select(ranked []model.RankedRecord, n int) []model.RankedRecord {
	out := make([]model.RankedRecord, 0, len(ranked))
	taken := 0
	for i, r := range ranked {
		if i == 0 || r.Key != ranked[i-1].Key {
			taken = 0
		}
		if taken < n {
			out = append(out, r)
			taken++
		}
	}
	return out
}
