// File: database/repository/user/userMongoCrud.go
package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodsync/database"
	"bloodsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create inserts a new profile document.
func (r *MongoUserRepo) Create(ctx context.Context, person *models.Person) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, person); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by its unique ID.
func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.Person, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	var person models.Person
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&person); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &person, nil
}

// Update replaces an existing profile document.
func (r *MongoUserRepo) Update(ctx context.Context, person *models.Person) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	person.UpdatedAt = time.Now()
	result, err := r.coll.ReplaceOne(ctx, bson.M{"id": person.ID}, person)
	if err != nil {
		return fmt.Errorf("failed to update user with id %s: %w", person.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", person.ID, database.ErrNotFound)
	}
	return nil
}

// SetAvailability toggles a donor's availability.
func (r *MongoUserRepo) SetAvailability(ctx context.Context, id string, availability models.Availability) error {
	return r.updateSetDocument(ctx, id, bson.M{"availability": availability})
}

// SetLastDonationDate records the date of the person's latest donation.
func (r *MongoUserRepo) SetLastDonationDate(ctx context.Context, id string, at time.Time) error {
	return r.updateSetDocument(ctx, id, bson.M{"lastDonationDate": at})
}

func (r *MongoUserRepo) updateSetDocument(ctx context.Context, id string, updateDoc bson.M) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	updateDoc["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": updateDoc})
	if err != nil {
		return fmt.Errorf("failed to update user with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
	}
	return nil
}
