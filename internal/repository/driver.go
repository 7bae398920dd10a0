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
)

type DriverRepository struct {
	collection *mongo.Collection
}

func NewDriverRepository(db *mongo.Database) *DriverRepository {
	return &DriverRepository{
		collection: db.Collection("drivers"),
	}
}

func (r *DriverRepository) Create(driver *models.Driver) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, driver)
	if err != nil {
		return nil, err
	}

	driver.ID = result.InsertedID.(primitive.ObjectID)
	return driver, nil
}

func (r *DriverRepository) FindByID(id string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	var driver models.Driver
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &driver, nil
}

func (r *DriverRepository) FindByUserID(userID string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", fleet.ErrNotFound)
	}

	var driver models.Driver
	err = r.collection.FindOne(ctx, bson.M{"user_id": objectID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver for user %s: %w", userID, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &driver, nil
}

// FindByVehicleID returns the driver currently holding the vehicle, or
// ErrNotFound when the vehicle is unassigned.
func (r *DriverRepository) FindByVehicleID(vehicleID string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	var driver models.Driver
	err = r.collection.FindOne(ctx, bson.M{"vehicle_id": objectID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver for vehicle %s: %w", vehicleID, fleet.ErrNotFound)
		}
		return nil, err
	}

	return &driver, nil
}

func (r *DriverRepository) FindAll() ([]*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeDrivers(ctx, cursor)
}

func (r *DriverRepository) FindByStatus(status string) ([]*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeDrivers(ctx, cursor)
}

// AssignVehicle points the driver at the vehicle. The unique partial index
// on vehicle_id is the compare-and-set: when another driver already holds
// the vehicle the write fails with a duplicate key error, which surfaces as
// ErrAlreadyAssigned.
func (r *DriverRepository) AssignVehicle(driverID, vehicleID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driverObjID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}
	vehicleObjID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": driverObjID},
		bson.M{"$set": bson.M{"vehicle_id": vehicleObjID, "updated_at": time.Now()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vehicle %s: %w", vehicleID, fleet.ErrAlreadyAssigned)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", driverID, fleet.ErrNotFound)
	}

	return nil
}

// UnassignVehicle clears the driver's vehicle reference. A driver without a
// vehicle is left untouched.
func (r *DriverRepository) UnassignVehicle(driverID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(driverID)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$unset": bson.M{"vehicle_id": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", driverID, fleet.ErrNotFound)
	}

	return nil
}

func (r *DriverRepository) Update(id string, driver *models.Driver) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	driver.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":       driver.Name,
		"license":    driver.License,
		"status":     driver.Status,
		"updated_at": driver.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}

	return r.FindByID(id)
}

func (r *DriverRepository) UpdateStatus(id string, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}

	return nil
}

func (r *DriverRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid driver ID: %w", fleet.ErrNotFound)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("driver %s: %w", id, fleet.ErrNotFound)
	}

	return nil
}

func decodeDrivers(ctx context.Context, cursor *mongo.Cursor) ([]*models.Driver, error) {
	var drivers []*models.Driver
	for cursor.Next(ctx) {
		var driver models.Driver
		if err := cursor.Decode(&driver); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}
	return drivers, cursor.Err()
}
