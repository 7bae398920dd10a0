package simulation

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartfleet-backend/internal/config"
	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
	"smartfleet-backend/internal/websocket"
)

type fakeFleet struct {
	mu       sync.Mutex
	trips    map[string]*models.Trip
	vehicles map[string]*models.Vehicle
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{
		trips:    make(map[string]*models.Trip),
		vehicles: make(map[string]*models.Vehicle),
	}
}

func (f *fakeFleet) FindActive() ([]*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Trip
	for _, t := range f.trips {
		if t.Status == models.TripStatusOnTrip {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFleet) FindByID(id string) (*models.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

type fakeVehicles struct {
	parent *fakeFleet
}

func (f *fakeVehicles) FindByID(id string) (*models.Vehicle, error) {
	f.parent.mu.Lock()
	defer f.parent.mu.Unlock()

	v, ok := f.parent.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVehicles) ApplyTelemetry(id string, lat, lng, deltaKm float64, maintenanceDue bool) (*models.Vehicle, error) {
	f.parent.mu.Lock()
	defer f.parent.mu.Unlock()

	v, ok := f.parent.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	if v.Status != models.VehicleStatusOnTrip && v.Status != models.VehicleStatusMaintenance {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrConcurrencyConflict)
	}
	v.Lat = lat
	v.Lng = lng
	v.TotalKm += deltaKm
	v.LastUpdate = time.Now()
	if maintenanceDue {
		v.Status = models.VehicleStatusMaintenance
	}
	cp := *v
	return &cp, nil
}

type collectPublisher struct {
	mu        sync.Mutex
	snapshots []websocket.VehicleSnapshot
}

func (p *collectPublisher) PublishVehicle(snapshot websocket.VehicleSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *collectPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		TickInterval:      5 * time.Second,
		StepKm:            0.5,
		JitterDegree:      0.001,
		GeofenceLat:       fleet.DefaultHomeLat,
		GeofenceLng:       fleet.DefaultHomeLng,
		GeofenceRadius:    fleet.DefaultGeofenceRadius,
		ServiceIntervalKm: 10000,
		MaxParallel:       4,
	}
}

func newTestScheduler(f *fakeFleet, cfg config.SimulationConfig) (*Scheduler, *collectPublisher) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	rng := rand.New(rand.NewPCG(1, 2))
	motion := fleet.NewMotionModelWith(rng, cfg.JitterDegree, cfg.StepKm)

	s := NewScheduler(f, &fakeVehicles{parent: f}, motion, cfg, log)
	pub := &collectPublisher{}
	s.SetPublisher(pub)
	return s, pub
}

func (f *fakeFleet) addActiveTrip(totalKm, lastServiceKm float64) (*models.Trip, *models.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	vehicle := &models.Vehicle{
		ID:            primitive.NewObjectID(),
		Plate:         fmt.Sprintf("CJ-%02d-SIM", len(f.vehicles)+1),
		Type:          "VAN",
		Status:        models.VehicleStatusOnTrip,
		Lat:           fleet.DefaultHomeLat,
		Lng:           fleet.DefaultHomeLng,
		TotalKm:       totalKm,
		LastServiceKm: lastServiceKm,
		LastUpdate:    now,
	}
	trip := &models.Trip{
		ID:        primitive.NewObjectID(),
		DriverID:  primitive.NewObjectID(),
		VehicleID: vehicle.ID,
		Status:    models.TripStatusOnTrip,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.vehicles[vehicle.ID.Hex()] = vehicle
	f.trips[trip.ID.Hex()] = trip
	return trip, vehicle
}

func TestTickAdvancesActiveVehicles(t *testing.T) {
	f := newFakeFleet()
	s, pub := newTestScheduler(f, testSimConfig())

	_, vehicle := f.addActiveTrip(100, 0)

	const ticks = 10
	for i := 0; i < ticks; i++ {
		s.Tick(context.Background())
	}

	got, err := (&fakeVehicles{parent: f}).FindByID(vehicle.ID.Hex())
	require.NoError(t, err)

	// odometer grows a fixed half km per tick regardless of the walk
	assert.InDelta(t, 100+ticks*0.5, got.TotalKm, 1e-9)

	// the walk stays within the per-tick jitter bound
	assert.InDelta(t, fleet.DefaultHomeLat, got.Lat, ticks*0.001+1e-9)
	assert.InDelta(t, fleet.DefaultHomeLng, got.Lng, ticks*0.001+1e-9)

	assert.Equal(t, ticks, pub.count())
}

func TestTickSkipsTripsNotOnTrip(t *testing.T) {
	f := newFakeFleet()
	s, pub := newTestScheduler(f, testSimConfig())

	trip, vehicle := f.addActiveTrip(100, 0)

	f.mu.Lock()
	f.trips[trip.ID.Hex()].Status = models.TripStatusCompleted
	f.mu.Unlock()

	s.Tick(context.Background())

	got, err := (&fakeVehicles{parent: f}).FindByID(vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.TotalKm)
	assert.Zero(t, pub.count())
}

func TestTickFlagsMaintenanceAtThreshold(t *testing.T) {
	f := newFakeFleet()
	s, _ := newTestScheduler(f, testSimConfig())

	// one more step pushes distance-since-service past the interval
	_, vehicle := f.addActiveTrip(10000, 0)

	s.Tick(context.Background())

	got, err := (&fakeVehicles{parent: f}).FindByID(vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusMaintenance, got.Status)
	assert.InDelta(t, 10000.5, got.TotalKm, 1e-9)
}

func TestTickExactlyAtIntervalNotDue(t *testing.T) {
	f := newFakeFleet()
	s, _ := newTestScheduler(f, testSimConfig())

	// lands exactly on the interval after the step; strictly-greater rule
	_, vehicle := f.addActiveTrip(9999.5, 0)

	s.Tick(context.Background())

	got, err := (&fakeVehicles{parent: f}).FindByID(vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusOnTrip, got.Status)
}

func TestTickDropsStepOnConcurrentStatusChange(t *testing.T) {
	f := newFakeFleet()
	s, pub := newTestScheduler(f, testSimConfig())

	_, vehicle := f.addActiveTrip(100, 0)

	// API released the vehicle between trip load and commit
	f.mu.Lock()
	f.vehicles[vehicle.ID.Hex()].Status = models.VehicleStatusAvailable
	f.mu.Unlock()

	s.Tick(context.Background())

	got, err := (&fakeVehicles{parent: f}).FindByID(vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.TotalKm)
	assert.Equal(t, models.VehicleStatusAvailable, got.Status)
	assert.Zero(t, pub.count())
}

func TestTickHandlesManyTrips(t *testing.T) {
	f := newFakeFleet()
	s, pub := newTestScheduler(f, testSimConfig())

	const fleetSize = 25
	for i := 0; i < fleetSize; i++ {
		f.addActiveTrip(float64(i)*10, 0)
	}

	s.Tick(context.Background())

	assert.Equal(t, fleetSize, pub.count())

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.vehicles {
		assert.Greater(t, v.TotalKm, 0.0)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFakeFleet()
	cfg := testSimConfig()
	cfg.TickInterval = 10 * time.Millisecond
	s, pub := newTestScheduler(f, cfg)

	f.addActiveTrip(0, 0)

	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	assert.Greater(t, pub.count(), 0)

	// no more ticks after Stop
	settled := pub.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, pub.count())
}
