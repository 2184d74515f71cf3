package cw

import (
	"math"
	"time"
)

const (
	// BaseDit is the dit length at speed 1.0
	BaseDit = 80 * time.Millisecond
	// FallbackDuration stands in for symbols that cannot be synthesized
	FallbackDuration = 500 * time.Millisecond

	MinSpeed  = 1.0
	MaxSpeed  = 2.0
	SpeedStep = 0.1
)

// Element is one mark followed by the silence before the next mark.
// Gap is zero for the final element.
type Element struct {
	Mark Mark
	Tone time.Duration
	Gap  time.Duration
}

// Plan is the timing of a single symbol at a given speed.
type Plan struct {
	Elements []Element
	Dit      time.Duration
	fallback bool
}

// NewPlan computes the timing of pattern at the speed multiplier s.
// An empty pattern or a non-positive speed yields a fallback plan lasting FallbackDuration.
func NewPlan(p Pattern, s float64) Plan {
	if len(p) == 0 || s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return Plan{fallback: true}
	}
	dit := time.Duration(float64(BaseDit) / s)
	elems := make([]Element, len(p))
	for i, m := range p {
		e := Element{Mark: m, Tone: dit}
		if m == Dah {
			e.Tone = DahDitRatio * dit
		}
		if i < len(p)-1 {
			e.Gap = IntraCharSpaceRatio * dit
		}
		elems[i] = e
	}
	return Plan{Elements: elems, Dit: dit}
}

// Fallback reports whether the plan is the placeholder for an unknown symbol.
func (p Plan) Fallback() bool {
	return p.fallback
}

// Duration returns the total audible length of the plan.
func (p Plan) Duration() time.Duration {
	if p.fallback {
		return FallbackDuration
	}
	var d time.Duration
	for _, e := range p.Elements {
		d += e.Tone + e.Gap
	}
	return d
}

// ClampSpeed snaps s onto the 0.1 grid within [MinSpeed, MaxSpeed].
func ClampSpeed(s float64) float64 {
	if math.IsNaN(s) || s < MinSpeed {
		return MinSpeed
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return math.Round(s*10) / 10
}

// ValidSpeed reports whether s lies within [MinSpeed, MaxSpeed].
func ValidSpeed(s float64) bool {
	return s >= MinSpeed && s <= MaxSpeed
}
