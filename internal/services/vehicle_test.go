package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
	"smartfleet-backend/internal/websocket"
)

type capturePublisher struct {
	mu        sync.Mutex
	snapshots []websocket.VehicleSnapshot
}

func (p *capturePublisher) PublishVehicle(snapshot websocket.VehicleSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
}

func (p *capturePublisher) all() []websocket.VehicleSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]websocket.VehicleSnapshot(nil), p.snapshots...)
}

func TestCreateVehicleDefaults(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())

	created, err := svc.CreateVehicle(&CreateVehicleRequest{Plate: "CJ-30-AAA", Type: "TRUCK"})
	require.NoError(t, err)

	assert.Equal(t, models.VehicleStatusIdle, created.Status)
	assert.Equal(t, fleet.DefaultHomeLat, created.Lat)
	assert.Equal(t, fleet.DefaultHomeLng, created.Lng)
	assert.Zero(t, created.TotalKm)
}

func TestCreateVehicleRejectsDuplicatePlate(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())

	_, err := svc.CreateVehicle(&CreateVehicleRequest{Plate: "CJ-30-AAA", Type: "TRUCK"})
	require.NoError(t, err)

	_, err = svc.CreateVehicle(&CreateVehicleRequest{Plate: "CJ-30-AAA", Type: "VAN"})
	assert.Error(t, err)
}

func TestUpdateLocationFlipsIdleVehicleOnTrip(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())

	pub := &capturePublisher{}
	svc.SetPublisher(pub)

	vehicle := seedVehicle(t, vehicles, "CJ-30-BBB", models.VehicleStatusIdle)

	updated, err := svc.UpdateLocation(vehicle.ID.Hex(), UpdateLocationCommand{Lat: 46.78, Lng: 23.6})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusOnTrip, updated.Status)
	assert.Equal(t, 46.78, updated.Lat)

	snaps := pub.all()
	require.Len(t, snaps, 1)
	assert.Equal(t, vehicle.ID.Hex(), snaps[0].ID)
	assert.Equal(t, models.VehicleStatusOnTrip, snaps[0].Status)
}

func TestUpdateLocationKeepsMaintenanceStatus(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())

	vehicle := seedVehicle(t, vehicles, "CJ-30-CCC", models.VehicleStatusMaintenance)

	updated, err := svc.UpdateLocation(vehicle.ID.Hex(), UpdateLocationCommand{Lat: 46.78, Lng: 23.6})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusMaintenance, updated.Status)
}

func TestPerformServiceResetsCounterAndStatus(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())

	vehicle := seedVehicle(t, vehicles, "CJ-30-DDD", models.VehicleStatusMaintenance)
	require.NoError(t, vehicles.UpdateStatus(vehicle.ID.Hex(), models.VehicleStatusMaintenance))
	_, err := vehicles.ApplyTelemetry(vehicle.ID.Hex(), vehicle.Lat, vehicle.Lng, 10500, true)
	require.NoError(t, err)

	serviced, err := svc.PerformService(vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.VehicleStatusIdle, serviced.Status)
	assert.Equal(t, serviced.TotalKm, serviced.LastServiceKm)
	assert.Equal(t, 10500.0, serviced.TotalKm)
}

func TestGetAvailableVehiclesExcludesHeldOnes(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())
	assignment := NewAssignmentService(drivers, vehicles, testLogger())

	free := seedVehicle(t, vehicles, "CJ-30-EEE", models.VehicleStatusIdle)
	held := seedVehicle(t, vehicles, "CJ-30-FFF", models.VehicleStatusIdle)
	seedVehicle(t, vehicles, "CJ-30-GGG", models.VehicleStatusMaintenance)

	driver := seedDriver(t, drivers, "Ana")
	_, err := assignment.Assign(AssignVehicleCommand{DriverID: driver.ID.Hex(), VehicleID: held.ID.Hex()})
	require.NoError(t, err)

	got, err := svc.GetAvailableVehicles()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, free.ID, got[0].ID)
}

func TestDeleteVehicleReleasesHoldingDriver(t *testing.T) {
	vehicles := newMemVehicleStore()
	drivers := newMemDriverStore()
	svc := NewVehicleService(vehicles, drivers, testLogger())
	assignment := NewAssignmentService(drivers, vehicles, testLogger())

	vehicle := seedVehicle(t, vehicles, "CJ-30-HHH", models.VehicleStatusIdle)
	driver := seedDriver(t, drivers, "Ana")
	_, err := assignment.Assign(AssignVehicleCommand{DriverID: driver.ID.Hex(), VehicleID: vehicle.ID.Hex()})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVehicle(vehicle.ID.Hex()))

	d, err := drivers.FindByID(driver.ID.Hex())
	require.NoError(t, err)
	assert.False(t, d.HasVehicle())

	_, err = vehicles.FindByID(vehicle.ID.Hex())
	assert.ErrorIs(t, err, fleet.ErrNotFound)
}
