// Package cover converts point-intercept hit counts into percent cover.
package cover

import (
	"errors"
	"fmt"
	"math"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/domain/model"
)

// Sentinel errors.
var (
	ErrInvalidProtocol  = errors.New("points per unit must be positive")
	ErrProtocolMismatch = errors.New("cover per hit does not match protocol")
)

const epsilon = 1e-9

// Protocol describes the point-intercept sampling density.
type Protocol struct {
	PointsPerUnit int
}

// CoverPerHit is the percent cover one hit represents.
func (p Protocol) CoverPerHit() float64 {
	return 100 / float64(p.PointsPerUnit)
}

// Calculator applies a fixed cover-per-hit constant.
type Calculator struct {
	protocol    Protocol
	coverPerHit float64
}

// NewCalculator pairs a protocol with its cover constant. A zero coverPerHit
// is derived from the protocol; any other value must agree with it.
func NewCalculator(p Protocol, coverPerHit float64) (*Calculator, error) {
	if p.PointsPerUnit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProtocol, p.PointsPerUnit)
	}
	derived := p.CoverPerHit()
	if coverPerHit == 0 {
		coverPerHit = derived
	}
	if math.Abs(coverPerHit-derived) > epsilon {
		return nil, fmt.Errorf("%w: %g per hit with %d points per unit (want %g)",
			ErrProtocolMismatch, coverPerHit, p.PointsPerUnit, derived)
	}
	return &Calculator{protocol: p, coverPerHit: coverPerHit}, nil
}

// CoverPerHit returns the constant in use.
func (c *Calculator) CoverPerHit() float64 { return c.coverPerHit }

// Protocol returns the protocol the calculator was built for.
func (c *Calculator) Protocol() Protocol { return c.protocol }

// Apply computes PercentCover = HitCount * CoverPerHit for every observation.
func (c *Calculator) Apply(obs []model.Observation) []model.CoveredObservation {
	out := make([]model.CoveredObservation, len(obs))
	for i, o := range obs {
		out[i] = model.CoveredObservation{
			Observation:  o,
			PercentCover: float64(o.HitCount) * c.coverPerHit,
			CoverPerHit:  c.coverPerHit,
		}
	}
	return out
}
