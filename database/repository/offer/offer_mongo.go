package offerRepo

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

// MongoOfferRepo implements OfferRepository using MongoDB.
type MongoOfferRepo struct {
	coll *mongo.Collection
}

func NewMongoOfferRepo(db *mongo.Database) OfferRepository {
	repo := &MongoOfferRepo{coll: db.Collection(database.OffersCollection)}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoOfferRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "donorId", Value: 1}, {Key: "matchDate", Value: -1}}},
		// One pending offer per donor and request.
		{
			Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "donorId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.OfferPending}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if offer.MatchDate.IsZero() {
		offer.MatchDate = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, offer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create offer: %w", database.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *MongoOfferRepo) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var offer models.Offer
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&offer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("offer %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch offer %s: %w", id, err)
	}
	return &offer, nil
}

func (r *MongoOfferRepo) ListByRequest(ctx context.Context, requestID string, status models.OfferStatus) ([]models.Offer, error) {
	filter := bson.M{"requestId": requestID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *MongoOfferRepo) ListByDonor(ctx context.Context, donorID string) ([]models.Offer, error) {
	return r.find(ctx, bson.M{"donorId": donorID})
}

func (r *MongoOfferRepo) HasPendingOffer(ctx context.Context, requestID, donorID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"requestId": requestID, "donorId": donorID, "status": models.OfferPending}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pending offers: %w", err)
	}
	return n > 0, nil
}

func (r *MongoOfferRepo) TransitionStatus(ctx context.Context, id string, from, to models.OfferStatus, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "respondedAt": at}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to transition offer %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoOfferRepo) AutoReject(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.OfferPending}
	update := bson.M{"$set": bson.M{"status": models.OfferRejected, "respondedAt": at, "autoRejected": true}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to auto-reject offer %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

func (r *MongoOfferRepo) find(ctx context.Context, filter bson.M) ([]models.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "matchDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve offers: %w", err)
	}
	defer cursor.Close(ctx)

	var offers []models.Offer
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}
	return offers, nil
}
