package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Trip statuses. COMPLETED and CANCELLED are terminal; transitions only move
// forward through ASSIGNED -> ON_TRIP -> COMPLETED or ASSIGNED/ON_TRIP ->
// CANCELLED.
const (
	TripStatusAssigned  = "ASSIGNED"
	TripStatusOnTrip    = "ON_TRIP"
	TripStatusCompleted = "COMPLETED"
	TripStatusCancelled = "CANCELLED"
)

// Trip binds a driver to the vehicle they held at creation time. Both
// references are fixed for the lifetime of the trip.
type Trip struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DriverID      primitive.ObjectID `bson:"driver_id" json:"driverId"`
	VehicleID     primitive.ObjectID `bson:"vehicle_id" json:"vehicleId"`
	StartLocation string             `bson:"start_location" json:"startLocation"`
	EndLocation   string             `bson:"end_location" json:"endLocation"`
	Distance      float64            `bson:"distance" json:"distance"`
	Status        string             `bson:"status" json:"status"`
	StartTime     *time.Time         `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime       *time.Time         `bson:"end_time,omitempty" json:"endTime,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsTerminal reports whether the trip can no longer transition.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}
