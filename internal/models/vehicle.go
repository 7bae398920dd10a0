package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle statuses. MAINTENANCE supersedes trip activity: a vehicle forced
// into maintenance mid-trip stays there until serviced.
const (
	VehicleStatusIdle        = "IDLE"
	VehicleStatusAvailable   = "AVAILABLE"
	VehicleStatusOnTrip      = "ON_TRIP"
	VehicleStatusMaintenance = "MAINTENANCE"
)

type Vehicle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Plate         string             `bson:"plate" json:"plate" validate:"required"`
	Brand         string             `bson:"brand" json:"brand"`
	Type          string             `bson:"type" json:"type" validate:"required"`
	Status        string             `bson:"status" json:"status"`
	Lat           float64            `bson:"lat" json:"lat"`
	Lng           float64            `bson:"lng" json:"lng"`
	TotalKm       float64            `bson:"total_km" json:"totalKm"`
	LastServiceKm float64            `bson:"last_service_km" json:"lastServiceKm"`
	LastUpdate    time.Time          `bson:"last_update" json:"lastUpdate"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// KmSinceService returns the distance accumulated since the last service.
func (v *Vehicle) KmSinceService() float64 {
	return v.TotalKm - v.LastServiceKm
}
