package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
	"smartfleet-backend/internal/websocket"
	"smartfleet-backend/pkg/cache"
)

// VehicleService covers the vehicle CRUD surface plus the two operations
// with real semantics: the manual location update (which publishes a
// snapshot just like the tick does) and the maintenance service action.
type VehicleService struct {
	vehicleStore VehicleStore
	driverStore  DriverStore
	cacheManager cache.CacheManager
	cacheConfig  cache.CacheConfig
	publisher    websocket.Publisher
	log          *logrus.Logger
}

func NewVehicleService(vehicleStore VehicleStore, driverStore DriverStore, log *logrus.Logger) *VehicleService {
	return &VehicleService{
		vehicleStore: vehicleStore,
		driverStore:  driverStore,
		cacheConfig:  cache.DefaultCacheConfig(),
		log:          log,
	}
}

// SetCacheManager wires the optional read cache.
func (s *VehicleService) SetCacheManager(cacheManager cache.CacheManager) {
	s.cacheManager = cacheManager
}

// SetPublisher wires the optional realtime broadcaster.
func (s *VehicleService) SetPublisher(publisher websocket.Publisher) {
	s.publisher = publisher
}

type CreateVehicleRequest struct {
	Plate  string   `json:"plate" validate:"required,min=1,max=20"`
	Brand  string   `json:"brand,omitempty" validate:"omitempty,max=50"`
	Type   string   `json:"type" validate:"required,min=1,max=50"`
	Status string   `json:"status,omitempty" validate:"omitempty,oneof=IDLE AVAILABLE MAINTENANCE"`
	Lat    *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng    *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
}

type UpdateVehicleRequest struct {
	Plate  string   `json:"plate,omitempty"`
	Brand  string   `json:"brand,omitempty"`
	Type   string   `json:"type,omitempty"`
	Status string   `json:"status,omitempty" validate:"omitempty,oneof=IDLE AVAILABLE ON_TRIP MAINTENANCE"`
	Lat    *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng    *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
}

func (s *VehicleService) GetAllVehicles() ([]*models.Vehicle, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetVehicleList("all_vehicles")
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).Warn("Cache error for GetAllVehicles")
		}
	}

	vehicles, err := s.vehicleStore.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("vehicle_list")
		if cacheErr := s.cacheManager.SetVehicleList("all_vehicles", vehicles, ttl); cacheErr != nil {
			s.log.WithError(cacheErr).Warn("Failed to cache vehicle list")
		}
	}

	return vehicles, nil
}

func (s *VehicleService) GetVehicleByID(id string) (*models.Vehicle, error) {
	if s.cacheManager != nil {
		cached, err := s.cacheManager.GetVehicle(id)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).WithField("vehicle", id).Warn("Cache error for GetVehicleByID")
		}
	}

	vehicle, err := s.vehicleStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("vehicle")
		if cacheErr := s.cacheManager.SetVehicle(id, vehicle, ttl); cacheErr != nil {
			s.log.WithError(cacheErr).WithField("vehicle", id).Warn("Failed to cache vehicle")
		}
	}

	return vehicle, nil
}

// GetAvailableVehicles lists vehicles ready for assignment: AVAILABLE or
// IDLE, and not already held by a driver.
func (s *VehicleService) GetAvailableVehicles() ([]*models.Vehicle, error) {
	vehicles, err := s.vehicleStore.FindAll()
	if err != nil {
		return nil, err
	}

	var free []*models.Vehicle
	for _, v := range vehicles {
		if v.Status != models.VehicleStatusAvailable && v.Status != models.VehicleStatusIdle {
			continue
		}
		_, err := s.driverStore.FindByVehicleID(v.ID.Hex())
		if err == nil {
			continue // held by a driver
		}
		if !errors.Is(err, fleet.ErrNotFound) {
			return nil, err
		}
		free = append(free, v)
	}

	return free, nil
}

func (s *VehicleService) GetVehiclesByStatus(status string) ([]*models.Vehicle, error) {
	return s.vehicleStore.FindByStatus(status)
}

func (s *VehicleService) CreateVehicle(req *CreateVehicleRequest) (*models.Vehicle, error) {
	existing, _ := s.vehicleStore.FindByPlate(req.Plate)
	if existing != nil {
		return nil, fmt.Errorf("plate %s already exists", req.Plate)
	}

	status := req.Status
	if status == "" {
		status = models.VehicleStatusIdle
	}

	now := time.Now()
	vehicle := &models.Vehicle{
		Plate:      req.Plate,
		Brand:      req.Brand,
		Type:       req.Type,
		Status:     status,
		Lat:        fleet.DefaultHomeLat,
		Lng:        fleet.DefaultHomeLng,
		LastUpdate: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Lat != nil {
		vehicle.Lat = *req.Lat
	}
	if req.Lng != nil {
		vehicle.Lng = *req.Lng
	}

	created, err := s.vehicleStore.Create(vehicle)
	if err != nil {
		return nil, err
	}

	s.invalidateListCache()
	s.log.WithField("plate", created.Plate).Info("Vehicle created")
	return created, nil
}

func (s *VehicleService) UpdateVehicle(id string, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.vehicleStore.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Plate != "" && req.Plate != vehicle.Plate {
		existing, _ := s.vehicleStore.FindByPlate(req.Plate)
		if existing != nil && existing.ID.Hex() != id {
			return nil, fmt.Errorf("plate %s already exists", req.Plate)
		}
		vehicle.Plate = req.Plate
	}
	if req.Brand != "" {
		vehicle.Brand = req.Brand
	}
	if req.Type != "" {
		vehicle.Type = req.Type
	}
	if req.Status != "" {
		vehicle.Status = req.Status
	}
	if req.Lat != nil {
		vehicle.Lat = *req.Lat
	}
	if req.Lng != nil {
		vehicle.Lng = *req.Lng
	}
	vehicle.LastUpdate = time.Now()

	updated, err := s.vehicleStore.Update(id, vehicle)
	if err != nil {
		return nil, err
	}

	s.invalidateVehicleCache(id)
	return updated, nil
}

// UpdateLocationCommand is the typed request for a manual position update.
type UpdateLocationCommand struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// UpdateLocation sets the position directly (e.g. from a driver's device)
// and publishes a snapshot, mirroring the tick's broadcast contract. An
// AVAILABLE or IDLE vehicle that starts reporting positions is flipped to
// ON_TRIP.
func (s *VehicleService) UpdateLocation(id string, cmd UpdateLocationCommand) (*models.Vehicle, error) {
	updated, err := s.vehicleStore.UpdateLocation(id, cmd.Lat, cmd.Lng)
	if err != nil {
		return nil, err
	}

	moved, err := s.vehicleStore.UpdateStatusIf(id,
		[]string{models.VehicleStatusAvailable, models.VehicleStatusIdle},
		models.VehicleStatusOnTrip)
	if err != nil {
		return nil, err
	}
	if moved {
		updated.Status = models.VehicleStatusOnTrip
	}

	s.invalidateVehicleCache(id)
	if s.publisher != nil {
		s.publisher.PublishVehicle(websocket.SnapshotFromVehicle(updated))
	}

	return updated, nil
}

// PerformService executes the maintenance service action: the service
// counter resets to the current odometer and a MAINTENANCE vehicle returns
// to IDLE.
func (s *VehicleService) PerformService(id string) (*models.Vehicle, error) {
	updated, err := s.vehicleStore.PerformService(id)
	if err != nil {
		return nil, err
	}

	s.invalidateVehicleCache(id)
	s.log.WithFields(logrus.Fields{
		"vehicle": id,
		"plate":   updated.Plate,
		"totalKm": updated.TotalKm,
	}).Info("Vehicle serviced")

	return updated, nil
}

// DeleteVehicle removes the vehicle, releasing its driver first so no
// dangling assignment survives.
func (s *VehicleService) DeleteVehicle(id string) error {
	if _, err := s.vehicleStore.FindByID(id); err != nil {
		return err
	}

	driver, err := s.driverStore.FindByVehicleID(id)
	if err == nil {
		if err := s.driverStore.UnassignVehicle(driver.ID.Hex()); err != nil {
			return err
		}
	} else if !errors.Is(err, fleet.ErrNotFound) {
		return err
	}

	if err := s.vehicleStore.Delete(id); err != nil {
		return err
	}

	s.invalidateVehicleCache(id)
	return nil
}

func (s *VehicleService) invalidateVehicleCache(id string) {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.InvalidateVehicle(id); err != nil {
		s.log.WithError(err).WithField("vehicle", id).Warn("Failed to invalidate vehicle cache")
	}
	s.invalidateListCache()
}

func (s *VehicleService) invalidateListCache() {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.DeleteVehicleList("all_vehicles"); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate vehicle list cache")
	}
}
