package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
)

// AssignmentService maintains the driver->vehicle relation and its one
// invariant: a vehicle is held by at most one driver at any instant.
type AssignmentService struct {
	driverStore  DriverStore
	vehicleStore VehicleStore
	log          *logrus.Logger
}

func NewAssignmentService(driverStore DriverStore, vehicleStore VehicleStore, log *logrus.Logger) *AssignmentService {
	return &AssignmentService{
		driverStore:  driverStore,
		vehicleStore: vehicleStore,
		log:          log,
	}
}

// AssignVehicleCommand is the typed request for assigning a vehicle.
type AssignVehicleCommand struct {
	DriverID  string `json:"driverId" validate:"required"`
	VehicleID string `json:"vehicleId" validate:"required"`
}

// Assign points the driver at the vehicle and marks the vehicle AVAILABLE.
// When another driver already holds the vehicle the store's compare-and-set
// fails and ErrAlreadyAssigned propagates untouched.
func (s *AssignmentService) Assign(cmd AssignVehicleCommand) (*models.Driver, error) {
	driver, err := s.driverStore.FindByID(cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if _, err := s.vehicleStore.FindByID(cmd.VehicleID); err != nil {
		return nil, err
	}

	if driver.HasVehicle() && driver.VehicleID.Hex() == cmd.VehicleID {
		return driver, nil // already holds it, idempotent
	}

	if err := s.driverStore.AssignVehicle(cmd.DriverID, cmd.VehicleID); err != nil {
		return nil, err
	}

	// A freshly assigned vehicle is ready for dispatch. MAINTENANCE stays
	// untouched until serviced.
	if _, err := s.vehicleStore.UpdateStatusIf(cmd.VehicleID,
		[]string{models.VehicleStatusIdle}, models.VehicleStatusAvailable); err != nil {
		return nil, fmt.Errorf("assign vehicle %s: %w", cmd.VehicleID, err)
	}

	s.log.WithFields(logrus.Fields{
		"driver":  cmd.DriverID,
		"vehicle": cmd.VehicleID,
	}).Info("Vehicle assigned to driver")

	return s.driverStore.FindByID(cmd.DriverID)
}

// Unassign clears the driver's vehicle reference. A driver with no vehicle
// is a no-op. The released vehicle is parked back to IDLE unless a trip or
// maintenance owns its status.
func (s *AssignmentService) Unassign(driverID string) (*models.Driver, error) {
	driver, err := s.driverStore.FindByID(driverID)
	if err != nil {
		return nil, err
	}
	if !driver.HasVehicle() {
		return driver, nil
	}

	vehicleID := driver.VehicleID.Hex()
	if err := s.driverStore.UnassignVehicle(driverID); err != nil {
		return nil, err
	}

	if _, err := s.vehicleStore.UpdateStatusIf(vehicleID,
		[]string{models.VehicleStatusAvailable}, models.VehicleStatusIdle); err != nil {
		return nil, fmt.Errorf("unassign vehicle %s: %w", vehicleID, err)
	}

	s.log.WithFields(logrus.Fields{
		"driver":  driverID,
		"vehicle": vehicleID,
	}).Info("Vehicle unassigned from driver")

	return s.driverStore.FindByID(driverID)
}

// IsAssigned reports whether any driver currently holds the vehicle.
func (s *AssignmentService) IsAssigned(vehicleID string) (bool, error) {
	_, err := s.driverStore.FindByVehicleID(vehicleID)
	if err != nil {
		if errors.Is(err, fleet.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
