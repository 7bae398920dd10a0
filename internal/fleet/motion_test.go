package fleet

import (
	"math"
	"math/rand/v2"
	"testing"

	"smartfleet-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestStepStaysWithinJitterBounds(t *testing.T) {
	model := NewMotionModel(testRand())
	vehicle := &models.Vehicle{Lat: DefaultHomeLat, Lng: DefaultHomeLng}

	for i := 0; i < 1000; i++ {
		lat, lng, delta := model.Step(vehicle)

		assert.LessOrEqual(t, math.Abs(lat-vehicle.Lat), DefaultJitterDegree)
		assert.LessOrEqual(t, math.Abs(lng-vehicle.Lng), DefaultJitterDegree)
		assert.Equal(t, DefaultStepKm, delta)
	}
}

func TestStepDoesNotMutateVehicle(t *testing.T) {
	model := NewMotionModel(testRand())
	vehicle := &models.Vehicle{Lat: 46.0, Lng: 23.0, TotalKm: 120}

	model.Step(vehicle)

	assert.Equal(t, 46.0, vehicle.Lat)
	assert.Equal(t, 23.0, vehicle.Lng)
	assert.Equal(t, 120.0, vehicle.TotalKm)
}

func TestStepIsDeterministicForSeededSource(t *testing.T) {
	vehicle := &models.Vehicle{Lat: 46.7712, Lng: 23.5889}

	a := NewMotionModel(rand.New(rand.NewPCG(7, 7)))
	b := NewMotionModel(rand.New(rand.NewPCG(7, 7)))

	latA, lngA, _ := a.Step(vehicle)
	latB, lngB, _ := b.Step(vehicle)

	assert.Equal(t, latA, latB)
	assert.Equal(t, lngA, lngB)
}

func TestCustomStepDistance(t *testing.T) {
	model := NewMotionModelWith(testRand(), 0.002, 1.25)
	vehicle := &models.Vehicle{}

	_, _, delta := model.Step(vehicle)

	assert.Equal(t, 1.25, delta)
	assert.Equal(t, 1.25, model.StepKm())
}
