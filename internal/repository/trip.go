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

type TripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{
		collection: db.Collection("trips"),
	}
}

func (r *TripRepository) Create(trip *models.Trip) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return nil, err
	}

	trip.ID = result.InsertedID.(primitive.ObjectID)
	return trip, nil
}

func (r *TripRepository) FindByID(id string) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid trip ID: %w", fleet.ErrNotFound)
	}

	var trip models.Trip
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &trip, nil
}

func (r *TripRepository) FindAll() ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

func (r *TripRepository) FindByDriverID(driverID string) ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": objectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

func (r *TripRepository) FindByVehicleID(vehicleID string) ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"vehicle_id": objectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

// FindActive returns the trips currently in ON_TRIP, the tick's snapshot set.
func (r *TripRepository) FindActive() ([]*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.TripStatusOnTrip})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeTrips(ctx, cursor)
}

// FindCurrentForDriver returns the driver's most recent non-terminal trip.
func (r *TripRepository) FindCurrentForDriver(driverID string) (*models.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	filter := bson.M{
		"driver_id": objectID,
		"status":    bson.M{"$in": []string{models.TripStatusAssigned, models.TripStatusOnTrip}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var trip models.Trip
	err = r.collection.FindOne(ctx, filter, opts).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("current trip for driver %s: %w", driverID, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &trip, nil
}

// Start moves the trip ASSIGNED -> ON_TRIP. The filtered update is the
// transition guard: false means the trip was not in ASSIGNED.
func (r *TripRepository) Start(id string, startTime time.Time) (bool, error) {
	return r.transition(id,
		[]string{models.TripStatusAssigned},
		models.TripStatusOnTrip,
		bson.M{"start_time": startTime},
	)
}

// Complete moves the trip to COMPLETED. ASSIGNED is tolerated as a source
// state so an admin can close out a trip that never started.
func (r *TripRepository) Complete(id string, endTime time.Time) (bool, error) {
	return r.transition(id,
		[]string{models.TripStatusAssigned, models.TripStatusOnTrip},
		models.TripStatusCompleted,
		bson.M{"end_time": endTime},
	)
}

// Cancel moves the trip to CANCELLED from either non-terminal state.
func (r *TripRepository) Cancel(id string) (bool, error) {
	return r.transition(id,
		[]string{models.TripStatusAssigned, models.TripStatusOnTrip},
		models.TripStatusCancelled,
		nil,
	)
}

func (r *TripRepository) transition(id string, from []string, to string, extra bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid trip ID: %w", fleet.ErrNotFound)
	}

	set := bson.M{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}

	return result.MatchedCount > 0, nil
}

func (r *TripRepository) CountByDriverID(driverID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return 0, fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	return r.collection.CountDocuments(ctx, bson.M{"driver_id": objectID})
}

// DeleteTerminalBefore purges completed and cancelled trips last touched
// before the cutoff. Non-terminal trips are never removed.
func (r *TripRepository) DeleteTerminalBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": []string{models.TripStatusCompleted, models.TripStatusCancelled}},
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

func (r *TripRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid trip ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("trip %s: %w", id, fleet.ErrNotFound)
	}

	return nil
}

func decodeTrips(ctx context.Context, cursor *mongo.Cursor) ([]*models.Trip, error) {
	var trips []*models.Trip
	for cursor.Next(ctx) {
		var trip models.Trip
		if err := cursor.Decode(&trip); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}
	return trips, cursor.Err()
}
