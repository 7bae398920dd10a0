package services

import (
	"time"

	"smartfleet-backend/internal/models"
)

// Store contracts the services run against. The mongo repositories satisfy
// them in production; the tests use in-memory implementations so the state
// machine and assignment invariants can be exercised without a database.

type VehicleStore interface {
	Create(vehicle *models.Vehicle) (*models.Vehicle, error)
	FindByID(id string) (*models.Vehicle, error)
	FindByPlate(plate string) (*models.Vehicle, error)
	FindAll() ([]*models.Vehicle, error)
	FindByStatus(status string) ([]*models.Vehicle, error)
	Update(id string, vehicle *models.Vehicle) (*models.Vehicle, error)
	UpdateLocation(id string, lat, lng float64) (*models.Vehicle, error)
	UpdateStatus(id string, status string) error
	UpdateStatusIf(id string, from []string, to string) (bool, error)
	ApplyTelemetry(id string, lat, lng, deltaKm float64, maintenanceDue bool) (*models.Vehicle, error)
	PerformService(id string) (*models.Vehicle, error)
	Delete(id string) error
}

type DriverStore interface {
	Create(driver *models.Driver) (*models.Driver, error)
	FindByID(id string) (*models.Driver, error)
	FindByUserID(userID string) (*models.Driver, error)
	FindByVehicleID(vehicleID string) (*models.Driver, error)
	FindAll() ([]*models.Driver, error)
	FindByStatus(status string) ([]*models.Driver, error)
	Update(id string, driver *models.Driver) (*models.Driver, error)
	AssignVehicle(driverID, vehicleID string) error
	UnassignVehicle(driverID string) error
	UpdateStatus(id string, status string) error
	Delete(id string) error
}

type TripStore interface {
	Create(trip *models.Trip) (*models.Trip, error)
	FindByID(id string) (*models.Trip, error)
	FindAll() ([]*models.Trip, error)
	FindByDriverID(driverID string) ([]*models.Trip, error)
	FindByVehicleID(vehicleID string) ([]*models.Trip, error)
	FindActive() ([]*models.Trip, error)
	FindCurrentForDriver(driverID string) (*models.Trip, error)
	Start(id string, startTime time.Time) (bool, error)
	Complete(id string, endTime time.Time) (bool, error)
	Cancel(id string) (bool, error)
	CountByDriverID(driverID string) (int64, error)
	Delete(id string) error
}

// TripCounter is the slice of the trip store the driver roster needs for
// its delete guard.
type TripCounter interface {
	CountByDriverID(driverID string) (int64, error)
}

type UserStore interface {
	Create(user *models.User) (*models.User, error)
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	UpdateLastLogin(id string, at time.Time) error
}
