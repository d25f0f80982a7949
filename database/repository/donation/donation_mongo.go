package donationRepo

import (
	"context"
	"fmt"
	"time"

	"bloodsync/database"
	"bloodsync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDonationRepo implements DonationRepository using MongoDB.
type MongoDonationRepo struct {
	coll *mongo.Collection
}

func NewMongoDonationRepo(db *mongo.Database) DonationRepository {
	repo := &MongoDonationRepo{coll: db.Collection(database.DonationsCollection)}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoDonationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// A request is fulfilled at most once.
		{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "donorId", Value: 1}, {Key: "donationDate", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoDonationRepo) Create(ctx context.Context, donation *models.Donation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, donation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to record donation: %w", database.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to record donation: %w", err)
	}
	return nil
}

func (r *MongoDonationRepo) ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return r.find(ctx, bson.M{"donorId": donorID})
}

func (r *MongoDonationRepo) GetAll(ctx context.Context) ([]models.Donation, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoDonationRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count donations: %w", err)
	}
	return n, nil
}

func (r *MongoDonationRepo) find(ctx context.Context, filter bson.M) ([]models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "donationDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve donations: %w", err)
	}
	defer cursor.Close(ctx)

	var donations []models.Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, fmt.Errorf("failed to decode donations: %w", err)
	}
	return donations, nil
}
