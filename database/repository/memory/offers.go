package memory

import (
	"context"
	"fmt"
	"time"

	"bloodsync/database"
	offerRepo "bloodsync/database/repository/offer"
	"bloodsync/models"
)

type offerStore struct{ s *Store }

// Offers returns the donationMatches collection.
func (s *Store) Offers() offerRepo.OfferRepository { return offerStore{s} }

func (o offerStore) Create(ctx context.Context, offer *models.Offer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer o.s.lockWrite(ctx)()

	if _, ok := o.s.offers[offer.ID]; ok {
		return fmt.Errorf("failed to create offer: %w", database.ErrDuplicateKey)
	}
	// Mirrors the partial unique index on (requestId, donorId) for pending offers.
	if offer.Status == models.OfferPending {
		for _, existing := range o.s.offers {
			if existing.Status == models.OfferPending && existing.RequestID == offer.RequestID && existing.DonorID == offer.DonorID {
				return fmt.Errorf("failed to create offer: %w", database.ErrDuplicateKey)
			}
		}
	}
	if offer.MatchDate.IsZero() {
		offer.MatchDate = time.Now()
	}
	o.s.offers[offer.ID] = *offer
	return nil
}

func (o offerStore) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	offer, ok := o.s.offers[id]
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", id, database.ErrNotFound)
	}
	return &offer, nil
}

func (o offerStore) ListByRequest(ctx context.Context, requestID string, status models.OfferStatus) ([]models.Offer, error) {
	return o.list(ctx, func(offer models.Offer) bool {
		return offer.RequestID == requestID && (status == "" || offer.Status == status)
	})
}

func (o offerStore) ListByDonor(ctx context.Context, donorID string) ([]models.Offer, error) {
	return o.list(ctx, func(offer models.Offer) bool { return offer.DonorID == donorID })
}

func (o offerStore) HasPendingOffer(ctx context.Context, requestID, donorID string) (bool, error) {
	offers, err := o.list(ctx, func(offer models.Offer) bool {
		return offer.RequestID == requestID && offer.DonorID == donorID && offer.Status == models.OfferPending
	})
	return len(offers) > 0, err
}

func (o offerStore) TransitionStatus(ctx context.Context, id string, from, to models.OfferStatus, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer o.s.lockWrite(ctx)()

	offer, ok := o.s.offers[id]
	if !ok || offer.Status != from {
		return false, nil
	}
	offer.Status = to
	offer.RespondedAt = &at
	o.s.offers[id] = offer
	return true, nil
}

func (o offerStore) AutoReject(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer o.s.lockWrite(ctx)()

	offer, ok := o.s.offers[id]
	if !ok || offer.Status != models.OfferPending {
		return false, nil
	}
	offer.Status = models.OfferRejected
	offer.RespondedAt = &at
	offer.AutoRejected = true
	o.s.offers[id] = offer
	return true, nil
}

func (o offerStore) list(ctx context.Context, keep func(models.Offer) bool) ([]models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return collect(o.s.offers, keep,
		func(a, b models.Offer) int { return b.MatchDate.Compare(a.MatchDate) },
		func(offer models.Offer) string { return offer.ID }), nil
}
