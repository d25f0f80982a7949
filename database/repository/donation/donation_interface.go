package donationRepo

import (
	"context"

	"bloodsync/models"
)

// DonationRepository is append-only: donations are never updated or deleted.
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	// ListByDonor returns a donor's history, newest first.
	ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error)
	GetAll(ctx context.Context) ([]models.Donation, error)
	Count(ctx context.Context) (int64, error)
}
