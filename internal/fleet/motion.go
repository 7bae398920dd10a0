package fleet

import (
	"math/rand/v2"

	"smartfleet-backend/internal/models"
)

// Default motion constants. The odometer increment is deliberately a fixed
// amount per tick rather than a function of the position delta, so odometer
// growth stays predictable regardless of the random walk.
const (
	DefaultStepKm       = 0.5
	DefaultJitterDegree = 0.001 // max displacement per axis per tick
)

// MotionModel computes one simulation step for a vehicle on an active trip.
// The walk is a bounded random perturbation around the current position, not
// route interpolation.
type MotionModel struct {
	rng    *rand.Rand
	jitter float64
	stepKm float64
}

// NewMotionModel builds a motion model around the given random source. The
// source is injected so tests can pin the walk.
func NewMotionModel(rng *rand.Rand) *MotionModel {
	return &MotionModel{
		rng:    rng,
		jitter: DefaultJitterDegree,
		stepKm: DefaultStepKm,
	}
}

// NewMotionModelWith builds a motion model with explicit jitter and step
// distance, for configs that override the defaults.
func NewMotionModelWith(rng *rand.Rand, jitterDegree, stepKm float64) *MotionModel {
	return &MotionModel{rng: rng, jitter: jitterDegree, stepKm: stepKm}
}

// StepKm returns the fixed odometer increment applied per tick.
func (m *MotionModel) StepKm() float64 {
	return m.stepKm
}

// Step returns the vehicle's next position and the distance increment for one
// tick. It never mutates the vehicle.
func (m *MotionModel) Step(v *models.Vehicle) (lat, lng, deltaKm float64) {
	lat = v.Lat + (m.rng.Float64()-0.5)*2*m.jitter
	lng = v.Lng + (m.rng.Float64()-0.5)*2*m.jitter
	return lat, lng, m.stepKm
}
