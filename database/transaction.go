package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs fn as one atomic unit. Repository calls made with the ctx
// handed to fn join the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

const maxTransactionRetries = 5

// MongoTransactor runs multi-document transactions on a replica set.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

// WithTransaction commits fn's writes or none of them. Write conflicts with a
// concurrent transaction are retried, so fn must re-read whatever it checks.
func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var lastErr error
	for attempt := 0; attempt < maxTransactionRetries; attempt++ {
		lastErr = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return commitWithRetry(sc)
		})
		if lastErr == nil || !hasLabel(lastErr, "TransientTransactionError") {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTransactionRetries, lastErr)
}

func commitWithRetry(sc mongo.SessionContext) error {
	for {
		err := sc.CommitTransaction(sc)
		if err == nil || !hasLabel(err, "UnknownTransactionCommitResult") {
			return err
		}
		if sc.Err() != nil {
			return sc.Err()
		}
	}
}

func hasLabel(err error, label string) bool {
	var le mongo.LabeledError
	return errors.As(err, &le) && le.HasErrorLabel(label)
}
