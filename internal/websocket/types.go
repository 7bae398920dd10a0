package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"smartfleet-backend/internal/models"
)

// VehicleSnapshot is the wire representation of a vehicle's state pushed to
// subscribers after every tick-driven or manual update.
type VehicleSnapshot struct {
	ID        string    `json:"id"`
	Plate     string    `json:"plate"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Status    string    `json:"status"`
	TotalKm   float64   `json:"totalKm"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotFromVehicle builds the broadcast payload from a vehicle record.
func SnapshotFromVehicle(v *models.Vehicle) VehicleSnapshot {
	return VehicleSnapshot{
		ID:        v.ID.Hex(),
		Plate:     v.Plate,
		Lat:       v.Lat,
		Lng:       v.Lng,
		Status:    v.Status,
		TotalKm:   v.TotalKm,
		Timestamp: v.LastUpdate,
	}
}

// Publisher is the fire-and-forget fan-out contract. Implementations must
// never block or fail the caller; an undeliverable snapshot is dropped.
type Publisher interface {
	PublishVehicle(snapshot VehicleSnapshot)
}

// SnapshotFilters narrows which snapshots a client receives.
type SnapshotFilters struct {
	VehicleIDs []string `json:"vehicleIds,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
}

// Client is a connected websocket subscriber.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  SnapshotFilters
	Send     chan VehicleSnapshot
	LastPing time.Time
}

// Message types pushed to clients.
const (
	MessageTypeVehicleUpdate = "vehicle_update"
)
