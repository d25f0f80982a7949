package requestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodsync/database"
	"bloodsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRequestRepo implements RequestRepository using MongoDB.
type MongoRequestRepo struct {
	coll *mongo.Collection
}

func NewMongoRequestRepo(db *mongo.Database) RequestRepository {
	repo := &MongoRequestRepo{coll: db.Collection(database.RequestsCollection)}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoRequestRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "geohash", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) Create(ctx context.Context, req *models.BloodRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create blood request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetByID(ctx context.Context, id string) (*models.BloodRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var req models.BloodRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("blood request %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch blood request %s: %w", id, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) ListByOwner(ctx context.Context, userID string) ([]models.BloodRequest, error) {
	return r.find(ctx, bson.M{"userId": userID}, newestFirst())
}

func (r *MongoRequestRepo) ListByStatus(ctx context.Context, status models.RequestStatus, bloodType models.BloodType) ([]models.BloodRequest, error) {
	return r.find(ctx, statusFilter(status, bloodType), newestFirst())
}

func (r *MongoRequestRepo) ListByGeohashRange(ctx context.Context, status models.RequestStatus, bloodType models.BloodType, min, max string) ([]models.BloodRequest, error) {
	filter := statusFilter(status, bloodType)
	filter["geohash"] = bson.M{"$gte": min, "$lt": max}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "geohash", Value: 1}}))
}

func (r *MongoRequestRepo) TransitionStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to transition blood request %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoRequestRepo) GetAll(ctx context.Context) ([]models.BloodRequest, error) {
	return r.find(ctx, bson.M{}, newestFirst())
}

func (r *MongoRequestRepo) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count blood requests: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.RequestStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode request counts: %w", err)
	}
	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func statusFilter(status models.RequestStatus, bloodType models.BloodType) bson.M {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if bloodType != "" {
		filter["bloodType"] = bloodType
	}
	return filter
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func (r *MongoRequestRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.BloodRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve blood requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []models.BloodRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode blood requests: %w", err)
	}
	return reqs, nil
}
