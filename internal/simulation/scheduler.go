package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"smartfleet-backend/internal/config"
	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"
	"smartfleet-backend/internal/websocket"
)

// TripSource and VehicleSink are the narrow slices of the stores the
// scheduler needs. The mongo repositories satisfy them directly.
type TripSource interface {
	FindActive() ([]*models.Trip, error)
	FindByID(id string) (*models.Trip, error)
}

type VehicleSink interface {
	FindByID(id string) (*models.Vehicle, error)
	ApplyTelemetry(id string, lat, lng, deltaKm float64, maintenanceDue bool) (*models.Vehicle, error)
}

// Scheduler drives the telemetry tick: every interval it advances each
// vehicle with an active trip by one motion step and commits the result
// through a guarded write. A trip that completes, or a vehicle whose status
// changes, between read and commit simply loses that tick.
type Scheduler struct {
	trips       TripSource
	vehicles    VehicleSink
	motion      *fleet.MotionModel
	geofence    *fleet.GeofenceMonitor
	maintenance *fleet.MaintenanceMonitor
	publisher   websocket.Publisher
	interval    time.Duration
	maxParallel int
	cancel      context.CancelFunc
	done        chan struct{}
	log         *logrus.Logger
}

func NewScheduler(
	trips TripSource,
	vehicles VehicleSink,
	motion *fleet.MotionModel,
	cfg config.SimulationConfig,
	log *logrus.Logger,
) *Scheduler {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 1
	}

	return &Scheduler{
		trips:       trips,
		vehicles:    vehicles,
		motion:      motion,
		geofence:    fleet.NewGeofenceMonitor(cfg.GeofenceLat, cfg.GeofenceLng, cfg.GeofenceRadius),
		maintenance: fleet.NewMaintenanceMonitor(cfg.ServiceIntervalKm),
		interval:    cfg.TickInterval,
		maxParallel: maxParallel,
		log:         log,
	}
}

// SetPublisher wires the optional realtime broadcaster.
func (s *Scheduler) SetPublisher(publisher websocket.Publisher) {
	s.publisher = publisher
}

// Start launches the tick loop. The first tick fires one interval after
// start, not immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	s.log.WithField("interval", s.interval).Info("Telemetry scheduler started")
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("Telemetry scheduler stopped")
}

// Tick advances every vehicle with an active trip by one step. Vehicles are
// processed concurrently with a bounded group; one vehicle's failure never
// stops the others.
func (s *Scheduler) Tick(ctx context.Context) {
	trips, err := s.trips.FindActive()
	if err != nil {
		s.log.WithError(err).Error("Failed to load active trips")
		return
	}
	if len(trips) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for _, trip := range trips {
		trip := trip
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.advanceVehicle(trip)
			return nil
		})
	}

	g.Wait()
}

// advanceVehicle runs one motion step for the trip's vehicle and commits it.
// The commit is guarded on the vehicle still being in a moving status, and
// the trip is re-checked just before writing, so a racing completion or
// cancellation drops the step instead of resurrecting a finished trip.
func (s *Scheduler) advanceVehicle(trip *models.Trip) {
	vehicleID := trip.VehicleID.Hex()

	vehicle, err := s.vehicles.FindByID(vehicleID)
	if err != nil {
		s.log.WithError(err).WithField("vehicle", vehicleID).Warn("Tick: failed to load vehicle")
		return
	}

	lat, lng, deltaKm := s.motion.Step(vehicle)

	if !s.geofence.Check(lat, lng) {
		s.log.WithFields(logrus.Fields{
			"vehicle": vehicleID,
			"plate":   vehicle.Plate,
			"lat":     lat,
			"lng":     lng,
		}).Warn("Vehicle outside operating boundary")
	}

	maintenanceDue := s.maintenance.Check(vehicle.TotalKm+deltaKm, vehicle.LastServiceKm)

	current, err := s.trips.FindByID(trip.ID.Hex())
	if err != nil || current.Status != models.TripStatusOnTrip {
		return // trip ended while we were computing the step
	}

	updated, err := s.vehicles.ApplyTelemetry(vehicleID, lat, lng, deltaKm, maintenanceDue)
	if err != nil {
		if errors.Is(err, fleet.ErrConcurrencyConflict) {
			// status changed under us; the next tick sees the new truth
			return
		}
		s.log.WithError(err).WithField("vehicle", vehicleID).Warn("Tick: failed to commit telemetry")
		return
	}

	if maintenanceDue && updated.Status == models.VehicleStatusMaintenance {
		s.log.WithFields(logrus.Fields{
			"vehicle": vehicleID,
			"plate":   updated.Plate,
			"totalKm": updated.TotalKm,
		}).Info("Vehicle flagged for maintenance")
	}

	if s.publisher != nil {
		s.publisher.PublishVehicle(websocket.SnapshotFromVehicle(updated))
	}
}
