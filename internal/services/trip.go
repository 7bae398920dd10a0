package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
)

// TripService owns the trip state machine and the synchronized status
// changes on the trip's driver and vehicle. Every transition runs through a
// guarded (filtered) store update, so two racing callers cannot both win.
type TripService struct {
	tripStore    TripStore
	driverStore  DriverStore
	vehicleStore VehicleStore
	log          *logrus.Logger
}

func NewTripService(tripStore TripStore, driverStore DriverStore, vehicleStore VehicleStore, log *logrus.Logger) *TripService {
	return &TripService{
		tripStore:    tripStore,
		driverStore:  driverStore,
		vehicleStore: vehicleStore,
		log:          log,
	}
}

// CreateTripCommand is the typed request for assigning a trip to a driver.
type CreateTripCommand struct {
	DriverID      string     `json:"driverId" validate:"required"`
	StartLocation string     `json:"startLocation" validate:"required"`
	EndLocation   string     `json:"endLocation" validate:"required"`
	Distance      float64    `json:"distance,omitempty" validate:"omitempty,min=0"`
	StartTime     *time.Time `json:"startTime,omitempty"`
}

// Create produces a trip in ASSIGNED, bound to the vehicle the driver holds
// right now. The driver keeps their current status until the trip actually
// starts.
func (s *TripService) Create(cmd CreateTripCommand) (*models.Trip, error) {
	driver, err := s.driverStore.FindByID(cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.HasVehicle() {
		return nil, fmt.Errorf("driver %s: %w", cmd.DriverID, fleet.ErrDriverHasNoVehicle)
	}

	now := time.Now()
	trip := &models.Trip{
		DriverID:      driver.ID,
		VehicleID:     *driver.VehicleID,
		StartLocation: cmd.StartLocation,
		EndLocation:   cmd.EndLocation,
		Distance:      cmd.Distance,
		Status:        models.TripStatusAssigned,
		StartTime:     cmd.StartTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.tripStore.Create(trip)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trip":    created.ID.Hex(),
		"driver":  cmd.DriverID,
		"vehicle": created.VehicleID.Hex(),
	}).Info("Trip created")

	return created, nil
}

// Start moves the trip ASSIGNED -> ON_TRIP and takes driver and vehicle
// along: both go ON_TRIP (a vehicle parked in MAINTENANCE keeps that status).
func (s *TripService) Start(tripID string) (*models.Trip, error) {
	trip, err := s.tripStore.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	ok, err := s.tripStore.Start(tripID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trip %s cannot start from %s: %w", tripID, trip.Status, fleet.ErrInvalidTransition)
	}

	if err := s.driverStore.UpdateStatus(trip.DriverID.Hex(), models.DriverStatusOnTrip); err != nil {
		return nil, fmt.Errorf("start trip %s: %w", tripID, err)
	}
	if _, err := s.vehicleStore.UpdateStatusIf(trip.VehicleID.Hex(),
		[]string{models.VehicleStatusIdle, models.VehicleStatusAvailable},
		models.VehicleStatusOnTrip); err != nil {
		return nil, fmt.Errorf("start trip %s: %w", tripID, err)
	}

	s.log.WithField("trip", tripID).Info("Trip started")
	return s.tripStore.FindByID(tripID)
}

// Complete moves the trip to COMPLETED and frees the driver. Completing an
// ASSIGNED trip that never started is tolerated; completing twice fails with
// ErrInvalidTransition.
func (s *TripService) Complete(tripID string) (*models.Trip, error) {
	trip, err := s.tripStore.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	ok, err := s.tripStore.Complete(tripID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trip %s cannot complete from %s: %w", tripID, trip.Status, fleet.ErrInvalidTransition)
	}

	if err := s.releaseDriverAndVehicle(trip); err != nil {
		return nil, fmt.Errorf("complete trip %s: %w", tripID, err)
	}

	s.log.WithField("trip", tripID).Info("Trip completed")
	return s.tripStore.FindByID(tripID)
}

// Cancel moves the trip to CANCELLED from either non-terminal state and
// frees the driver.
func (s *TripService) Cancel(tripID string) (*models.Trip, error) {
	trip, err := s.tripStore.FindByID(tripID)
	if err != nil {
		return nil, err
	}

	ok, err := s.tripStore.Cancel(tripID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("trip %s cannot cancel from %s: %w", tripID, trip.Status, fleet.ErrInvalidTransition)
	}

	if err := s.releaseDriverAndVehicle(trip); err != nil {
		return nil, fmt.Errorf("cancel trip %s: %w", tripID, err)
	}

	s.log.WithField("trip", tripID).Info("Trip cancelled")
	return s.tripStore.FindByID(tripID)
}

// releaseDriverAndVehicle restores the pair after a terminal transition. The
// vehicle only leaves ON_TRIP; a MAINTENANCE status outlives the trip.
func (s *TripService) releaseDriverAndVehicle(trip *models.Trip) error {
	if err := s.driverStore.UpdateStatus(trip.DriverID.Hex(), models.DriverStatusAvailable); err != nil {
		return err
	}
	if _, err := s.vehicleStore.UpdateStatusIf(trip.VehicleID.Hex(),
		[]string{models.VehicleStatusOnTrip}, models.VehicleStatusAvailable); err != nil {
		return err
	}
	return nil
}

func (s *TripService) GetAllTrips() ([]*models.Trip, error) {
	return s.tripStore.FindAll()
}

func (s *TripService) GetTripByID(id string) (*models.Trip, error) {
	return s.tripStore.FindByID(id)
}

func (s *TripService) GetTripsByDriver(driverID string) ([]*models.Trip, error) {
	return s.tripStore.FindByDriverID(driverID)
}

func (s *TripService) GetTripsByVehicle(vehicleID string) ([]*models.Trip, error) {
	return s.tripStore.FindByVehicleID(vehicleID)
}

// GetCurrentTripForDriver returns the driver's most recent trip still in
// ASSIGNED or ON_TRIP.
func (s *TripService) GetCurrentTripForDriver(driverID string) (*models.Trip, error) {
	return s.tripStore.FindCurrentForDriver(driverID)
}

func (s *TripService) DeleteTrip(id string) error {
	return s.tripStore.Delete(id)
}
