// File: database/repository/user/userMongoQueries.go
package userRepo

import (
	"context"
	"fmt"
	"time"

	"bloodsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func donorFilter(availability models.Availability, bloodType models.BloodType) bson.M {
	filter := bson.M{"isDonor": true}
	if availability != "" {
		filter["availability"] = availability
	}
	if bloodType != "" {
		filter["bloodType"] = bloodType
	}
	return filter
}

// ListDonors returns donors matching availability and blood type, newest first.
func (r *MongoUserRepo) ListDonors(ctx context.Context, availability models.Availability, bloodType models.BloodType) ([]models.Person, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, donorFilter(availability, bloodType), opts)
}

// ListDonorsInRange returns donors whose geohash lies in [min, max), ordered by geohash.
func (r *MongoUserRepo) ListDonorsInRange(ctx context.Context, availability models.Availability, bloodType models.BloodType, min, max string) ([]models.Person, error) {
	filter := donorFilter(availability, bloodType)
	filter["geohash"] = bson.M{"$gte": min, "$lt": max}
	opts := options.Find().SetSort(bson.D{{Key: "geohash", Value: 1}})
	return r.find(ctx, filter, opts)
}

// GetAll retrieves all profiles.
func (r *MongoUserRepo) GetAll(ctx context.Context) ([]models.Person, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

// Count returns the number of profiles, optionally donors only.
func (r *MongoUserRepo) Count(ctx context.Context, donorsOnly bool) (int64, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if donorsOnly {
		filter["isDonor"] = true
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *MongoUserRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Person, error) {
	ctx, cancel := withTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer cursor.Close(ctx)

	var people []models.Person
	for cursor.Next(ctx) {
		var p models.Person
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		people = append(people, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("user cursor error: %w", err)
	}
	return people, nil
}
