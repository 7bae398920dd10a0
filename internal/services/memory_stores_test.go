package services

import (
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
)

// In-memory store implementations with the same guarded-write semantics as
// the mongo repositories, so the services can be exercised under real
// concurrency without a database.

type memVehicleStore struct {
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
}

func newMemVehicleStore() *memVehicleStore {
	return &memVehicleStore{vehicles: make(map[string]*models.Vehicle)}
}

func (s *memVehicleStore) Create(vehicle *models.Vehicle) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	cp := *vehicle
	s.vehicles[vehicle.ID.Hex()] = &cp
	return vehicle, nil
}

func (s *memVehicleStore) FindByID(id string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *memVehicleStore) FindByPlate(plate string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.vehicles {
		if v.Plate == plate {
			cp := *v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("vehicle %s: %w", plate, fleet.ErrNotFound)
}

func (s *memVehicleStore) FindAll() ([]*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Vehicle
	for _, v := range s.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memVehicleStore) FindByStatus(status string) ([]*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Vehicle
	for _, v := range s.vehicles {
		if v.Status == status {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memVehicleStore) Update(id string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[id]; !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	cp := *vehicle
	cp.UpdatedAt = time.Now()
	s.vehicles[id] = &cp
	out := cp
	return &out, nil
}

func (s *memVehicleStore) UpdateLocation(id string, lat, lng float64) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	v.Lat = lat
	v.Lng = lng
	v.LastUpdate = time.Now()
	cp := *v
	return &cp, nil
}

func (s *memVehicleStore) UpdateStatus(id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	v.Status = status
	return nil
}

func (s *memVehicleStore) UpdateStatusIf(id string, from []string, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return false, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	for _, f := range from {
		if v.Status == f {
			v.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *memVehicleStore) ApplyTelemetry(id string, lat, lng, deltaKm float64, maintenanceDue bool) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
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

func (s *memVehicleStore) PerformService(id string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	v.LastServiceKm = v.TotalKm
	if v.Status == models.VehicleStatusMaintenance {
		v.Status = models.VehicleStatusIdle
	}
	cp := *v
	return &cp, nil
}

func (s *memVehicleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[id]; !ok {
		return fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}
	delete(s.vehicles, id)
	return nil
}

type memDriverStore struct {
	mu      sync.Mutex
	drivers map[string]*models.Driver
}

func newMemDriverStore() *memDriverStore {
	return &memDriverStore{drivers: make(map[string]*models.Driver)}
}

func (s *memDriverStore) Create(driver *models.Driver) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	cp := *driver
	s.drivers[driver.ID.Hex()] = &cp
	return driver, nil
}

func (s *memDriverStore) FindByID(id string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (s *memDriverStore) FindByUserID(userID string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drivers {
		if d.UserID.Hex() == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("driver for user %s: %w", userID, fleet.ErrNotFound)
}

func (s *memDriverStore) FindByVehicleID(vehicleID string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.drivers {
		if d.VehicleID != nil && d.VehicleID.Hex() == vehicleID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("driver for vehicle %s: %w", vehicleID, fleet.ErrNotFound)
}

func (s *memDriverStore) FindAll() ([]*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Driver
	for _, d := range s.drivers {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memDriverStore) FindByStatus(status string) ([]*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Driver
	for _, d := range s.drivers {
		if d.Status == status {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memDriverStore) Update(id string, driver *models.Driver) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	d.Name = driver.Name
	d.License = driver.License
	d.Status = driver.Status
	d.UpdatedAt = time.Now()
	cp := *d
	return &cp, nil
}

// AssignVehicle mirrors the unique partial index: the write fails with
// ErrAlreadyAssigned when another driver already holds the vehicle.
func (s *memDriverStore) AssignVehicle(driverID, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return fmt.Errorf("driver %s: %w", driverID, fleet.ErrNotFound)
	}

	for otherID, other := range s.drivers {
		if otherID == driverID {
			continue
		}
		if other.VehicleID != nil && other.VehicleID.Hex() == vehicleID {
			return fmt.Errorf("vehicle %s: %w", vehicleID, fleet.ErrAlreadyAssigned)
		}
	}

	objID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}
	d.VehicleID = &objID
	d.UpdatedAt = time.Now()
	return nil
}

func (s *memDriverStore) UnassignVehicle(driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[driverID]
	if !ok {
		return fmt.Errorf("driver %s: %w", driverID, fleet.ErrNotFound)
	}
	d.VehicleID = nil
	d.UpdatedAt = time.Now()
	return nil
}

func (s *memDriverStore) UpdateStatus(id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	d.Status = status
	return nil
}

func (s *memDriverStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drivers[id]; !ok {
		return fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}
	delete(s.drivers, id)
	return nil
}

type memTripStore struct {
	mu    sync.Mutex
	trips map[string]*models.Trip
}

func newMemTripStore() *memTripStore {
	return &memTripStore{trips: make(map[string]*models.Trip)}
}

func (s *memTripStore) Create(trip *models.Trip) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	cp := *trip
	s.trips[trip.ID.Hex()] = &cp
	return trip, nil
}

func (s *memTripStore) FindByID(id string) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *memTripStore) FindAll() ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Trip
	for _, t := range s.trips {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memTripStore) FindByDriverID(driverID string) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Trip
	for _, t := range s.trips {
		if t.DriverID.Hex() == driverID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTripStore) FindByVehicleID(vehicleID string) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Trip
	for _, t := range s.trips {
		if t.VehicleID.Hex() == vehicleID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTripStore) FindActive() ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Trip
	for _, t := range s.trips {
		if t.Status == models.TripStatusOnTrip {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTripStore) FindCurrentForDriver(driverID string) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Trip
	for _, t := range s.trips {
		if t.DriverID.Hex() != driverID {
			continue
		}
		if t.Status != models.TripStatusAssigned && t.Status != models.TripStatusOnTrip {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("current trip for driver %s: %w", driverID, fleet.ErrNotFound)
	}
	cp := *latest
	return &cp, nil
}

func (s *memTripStore) transition(id string, from []string, to string, apply func(*models.Trip)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trips[id]
	if !ok {
		return false, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	for _, f := range from {
		if t.Status == f {
			t.Status = to
			t.UpdatedAt = time.Now()
			if apply != nil {
				apply(t)
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *memTripStore) Start(id string, startTime time.Time) (bool, error) {
	return s.transition(id, []string{models.TripStatusAssigned}, models.TripStatusOnTrip, func(t *models.Trip) {
		t.StartTime = &startTime
	})
}

func (s *memTripStore) Complete(id string, endTime time.Time) (bool, error) {
	return s.transition(id,
		[]string{models.TripStatusAssigned, models.TripStatusOnTrip},
		models.TripStatusCompleted, func(t *models.Trip) {
			t.EndTime = &endTime
		})
}

func (s *memTripStore) Cancel(id string) (bool, error) {
	return s.transition(id,
		[]string{models.TripStatusAssigned, models.TripStatusOnTrip},
		models.TripStatusCancelled, nil)
}

func (s *memTripStore) CountByDriverID(driverID string) (int64, error) {
	trips, _ := s.FindByDriverID(driverID)
	return int64(len(trips)), nil
}

func (s *memTripStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[id]; !ok {
		return fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}
	delete(s.trips, id)
	return nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) Create(user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	s.users[user.ID.Hex()] = &cp
	return user, nil
}

func (s *memUserStore) FindByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, fleet.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) FindByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, fleet.ErrNotFound)
}

func (s *memUserStore) FindByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, fleet.ErrNotFound)
}

func (s *memUserStore) UpdateLastLogin(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, fleet.ErrNotFound)
	}
	u.LastLogin = &at
	return nil
}
