package repository

import (
	"context"
	"fmt"
	"time"

	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VehicleRepository struct {
	collection *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{
		collection: db.Collection("vehicles"),
	}
}

func (r *VehicleRepository) Create(vehicle *models.Vehicle) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		return nil, err
	}

	vehicle.ID = result.InsertedID.(primitive.ObjectID)
	return vehicle, nil
}

func (r *VehicleRepository) FindByID(id string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	var vehicle models.Vehicle
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &vehicle, nil
}

func (r *VehicleRepository) FindByPlate(plate string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var vehicle models.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"plate": plate}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle plate %s: %w", plate, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &vehicle, nil
}

func (r *VehicleRepository) FindAll() ([]*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_update", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeVehicles(ctx, cursor)
}

func (r *VehicleRepository) FindByStatus(status string) ([]*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeVehicles(ctx, cursor)
}

func (r *VehicleRepository) Update(id string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	vehicle.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": vehicle},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Vehicle
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &updated, nil
}

// UpdateLocation sets the vehicle's position directly (manual update path).
func (r *VehicleRepository) UpdateLocation(id string, lat, lng float64) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	now := time.Now()
	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"lat":         lat,
			"lng":         lng,
			"last_update": now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Vehicle
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &updated, nil
}

func (r *VehicleRepository) UpdateStatus(id string, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	now := time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{"status": status, "last_update": now, "updated_at": now},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}

	return nil
}

// UpdateStatusIf flips the status only when the current status is one of
// from. Returns false without error when the guard does not match, so
// callers can treat a lost race as a no-op.
func (r *VehicleRepository) UpdateStatusIf(id string, from []string, to string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": to, "last_update": now, "updated_at": now}},
	)
	if err != nil {
		return false, err
	}

	return result.MatchedCount > 0, nil
}

// ApplyTelemetry commits one tick's worth of movement. The write is guarded:
// it only matches while the vehicle is still ON_TRIP (or already forced into
// MAINTENANCE with the trip still running), so a trip completed between
// snapshot and commit atomically voids the step. The odometer moves by $inc
// only, keeping it monotonic.
func (r *VehicleRepository) ApplyTelemetry(id string, lat, lng, deltaKm float64, maintenanceDue bool) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	now := time.Now()
	set := bson.M{
		"lat":         lat,
		"lng":         lng,
		"last_update": now,
		"updated_at":  now,
	}
	if maintenanceDue {
		set["status"] = models.VehicleStatusMaintenance
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{
			"_id":    objectID,
			"status": bson.M{"$in": []string{models.VehicleStatusOnTrip, models.VehicleStatusMaintenance}},
		},
		bson.M{
			"$set": set,
			"$inc": bson.M{"total_km": deltaKm},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Vehicle
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle %s telemetry guard failed: %w", id, fleet.ErrConcurrencyConflict)
		}
		return nil, err
	}

	return &updated, nil
}

// PerformService raises last_service_km to the current odometer and releases
// the vehicle from MAINTENANCE back to IDLE. The pipeline update keeps both
// steps atomic on the document.
func (r *VehicleRepository) PerformService(id string) (*models.Vehicle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	now := time.Now()
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"last_service_km": "$total_km",
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", models.VehicleStatusMaintenance}},
				models.VehicleStatusIdle,
				"$status",
			}},
			"last_update": now,
			"updated_at":  now,
		}},
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Vehicle
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &updated, nil
}

func (r *VehicleRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", id, fleet.ErrNotFound)
	}

	return nil
}

func decodeVehicles(ctx context.Context, cursor *mongo.Cursor) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	for cursor.Next(ctx) {
		var vehicle models.Vehicle
		if err := cursor.Decode(&vehicle); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &vehicle)
	}
	return vehicles, cursor.Err()
}
