package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
)

// DriverService covers the driver roster: profiles, duty status, and the
// read side of the vehicle relation. Assignment changes go through
// AssignmentService, which owns the one-driver-per-vehicle invariant.
type DriverService struct {
	driverStore DriverStore
	tripCounter TripCounter
	log         *logrus.Logger
}

func NewDriverService(driverStore DriverStore, log *logrus.Logger) *DriverService {
	return &DriverService{
		driverStore: driverStore,
		log:         log,
	}
}

// SetTripCounter wires the trip history lookup used as a delete guard.
func (s *DriverService) SetTripCounter(tripCounter TripCounter) {
	s.tripCounter = tripCounter
}

type CreateDriverRequest struct {
	UserID  string `json:"userId,omitempty"`
	Name    string `json:"name" validate:"required,min=1,max=100"`
	License string `json:"license,omitempty" validate:"omitempty,max=50"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE OFF_DUTY SUSPENDED ON_LEAVE"`
}

type UpdateDriverRequest struct {
	Name    string `json:"name,omitempty"`
	License string `json:"license,omitempty"`
	Status  string `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE ON_TRIP OFF_DUTY SUSPENDED ON_LEAVE"`
}

func (s *DriverService) GetAllDrivers() ([]*models.Driver, error) {
	return s.driverStore.FindAll()
}

func (s *DriverService) GetDriverByID(id string) (*models.Driver, error) {
	return s.driverStore.FindByID(id)
}

func (s *DriverService) GetDriverByUserID(userID string) (*models.Driver, error) {
	return s.driverStore.FindByUserID(userID)
}

func (s *DriverService) GetDriversByStatus(status string) ([]*models.Driver, error) {
	return s.driverStore.FindByStatus(status)
}

func (s *DriverService) CreateDriver(req *CreateDriverRequest) (*models.Driver, error) {
	status := req.Status
	if status == "" {
		status = models.DriverStatusAvailable
	}

	now := time.Now()
	driver := &models.Driver{
		Name:      req.Name,
		License:   req.License,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.UserID != "" {
		userObjID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			return nil, err
		}
		driver.UserID = userObjID
	}

	created, err := s.driverStore.Create(driver)
	if err != nil {
		return nil, err
	}

	s.log.WithField("driver", created.ID.Hex()).Info("Driver created")
	return created, nil
}

func (s *DriverService) UpdateDriver(id string, req *UpdateDriverRequest) (*models.Driver, error) {
	driver, err := s.driverStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		driver.Name = req.Name
	}
	if req.License != "" {
		driver.License = req.License
	}
	if req.Status != "" {
		driver.Status = req.Status
	}

	return s.driverStore.Update(id, driver)
}

// UpdateStatus sets the duty status directly, e.g. taking a driver off duty.
func (s *DriverService) UpdateStatus(id string, status string) (*models.Driver, error) {
	if err := s.driverStore.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	return s.driverStore.FindByID(id)
}

// DeleteDriver removes the driver, releasing any vehicle they hold first.
// A driver with recorded trips cannot be deleted; that would orphan the
// trip history.
func (s *DriverService) DeleteDriver(id string) error {
	driver, err := s.driverStore.FindByID(id)
	if err != nil {
		return err
	}

	if s.tripCounter != nil {
		count, err := s.tripCounter.CountByDriverID(id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("driver %s has %d trips: %w", id, count, fleet.ErrDriverHasTrips)
		}
	}

	if driver.HasVehicle() {
		if err := s.driverStore.UnassignVehicle(id); err != nil {
			return err
		}
	}

	if err := s.driverStore.Delete(id); err != nil {
		return err
	}

	s.log.WithField("driver", id).Info("Driver deleted")
	return nil
}
