package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Driver statuses.
const (
	DriverStatusAvailable = "AVAILABLE"
	DriverStatusOnTrip    = "ON_TRIP"
	DriverStatusOffDuty   = "OFF_DUTY"
	DriverStatusSuspended = "SUSPENDED"
	DriverStatusOnLeave   = "ON_LEAVE"
)

// Driver holds a weak reference to the vehicle it currently operates.
// VehicleID is nil when no vehicle is assigned; a unique partial index on
// vehicle_id guarantees at most one driver per vehicle.
type Driver struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"userId"`
	Name      string              `bson:"name" json:"name" validate:"required"`
	License   string              `bson:"license" json:"license"`
	VehicleID *primitive.ObjectID `bson:"vehicle_id,omitempty" json:"vehicleId,omitempty"`
	Status    string              `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// HasVehicle reports whether the driver currently holds a vehicle.
func (d *Driver) HasVehicle() bool {
	return d.VehicleID != nil && !d.VehicleID.IsZero()
}
