package offerRepo

import (
	"context"
	"time"

	"bloodsync/models"
)

// OfferRepository defines methods for donation match (offer) data access.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	// GetByID returns database.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	// ListByRequest returns a request's offers, newest first. Empty status matches all.
	ListByRequest(ctx context.Context, requestID string, status models.OfferStatus) ([]models.Offer, error)
	// ListByDonor returns a donor's offers, newest first.
	ListByDonor(ctx context.Context, donorID string) ([]models.Offer, error)
	// HasPendingOffer reports whether donorID already has a pending offer on requestID.
	HasPendingOffer(ctx context.Context, requestID, donorID string) (bool, error)
	// TransitionStatus moves an offer from `from` to `to` only if it is still in `from`.
	TransitionStatus(ctx context.Context, id string, from, to models.OfferStatus, at time.Time) (bool, error)
	// AutoReject rejects a still pending offer on behalf of its closed request.
	AutoReject(ctx context.Context, id string, at time.Time) (bool, error)
}
