package memory

import (
	"context"
	"fmt"

	"bloodsync/database"
	donationRepo "bloodsync/database/repository/donation"
	"bloodsync/models"
)

type donationStore struct{ s *Store }

// Donations returns the donations collection.
func (s *Store) Donations() donationRepo.DonationRepository { return donationStore{s} }

func (d donationStore) Create(ctx context.Context, donation *models.Donation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer d.s.lockWrite(ctx)()

	for _, existing := range d.s.donations {
		if existing.ID == donation.ID || existing.RequestID == donation.RequestID {
			return fmt.Errorf("failed to record donation: %w", database.ErrDuplicateKey)
		}
	}
	d.s.donations[donation.ID] = *donation
	return nil
}

func (d donationStore) ListByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return d.list(ctx, func(don models.Donation) bool { return don.DonorID == donorID })
}

func (d donationStore) GetAll(ctx context.Context) ([]models.Donation, error) {
	return d.list(ctx, func(models.Donation) bool { return true })
}

func (d donationStore) Count(ctx context.Context) (int64, error) {
	all, err := d.GetAll(ctx)
	return int64(len(all)), err
}

func (d donationStore) list(ctx context.Context, keep func(models.Donation) bool) ([]models.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return collect(d.s.donations, keep,
		func(a, b models.Donation) int { return b.DonationDate.Compare(a.DonationDate) },
		func(don models.Donation) string { return don.ID }), nil
}
