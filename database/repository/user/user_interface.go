package userRepo

import (
	"context"
	"time"

	"bloodsync/models"
)

// UserRepository defines methods for person profile data access.
type UserRepository interface {
	// Create inserts a new profile.
	Create(ctx context.Context, person *models.Person) error
	// GetByID retrieves a profile by id. Returns database.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.Person, error)
	// Update replaces an existing profile.
	Update(ctx context.Context, person *models.Person) error
	// SetAvailability toggles a donor's availability.
	SetAvailability(ctx context.Context, id string, availability models.Availability) error
	// SetLastDonationDate records when the person last donated.
	SetLastDonationDate(ctx context.Context, id string, at time.Time) error
	// ListDonors returns donors with the given availability, newest first.
	// An empty bloodType matches every group.
	ListDonors(ctx context.Context, availability models.Availability, bloodType models.BloodType) ([]models.Person, error)
	// ListDonorsInRange returns donors whose geohash lies in [min, max).
	ListDonorsInRange(ctx context.Context, availability models.Availability, bloodType models.BloodType, min, max string) ([]models.Person, error)
	// GetAll retrieves every profile.
	GetAll(ctx context.Context) ([]models.Person, error)
	// Count returns the number of profiles, optionally donors only.
	Count(ctx context.Context, donorsOnly bool) (int64, error)
}
