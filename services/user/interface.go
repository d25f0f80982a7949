package user

import (
	"context"

	donationRepo "bloodsync/database/repository/donation"
	userRepo "bloodsync/database/repository/user"
	"bloodsync/models"
	"bloodsync/services/proximity"
)

type UserService interface {
	// Profile
	UpsertProfile(ctx context.Context, caller models.Caller, input ProfileInput) (*models.Person, error)
	GetProfile(ctx context.Context, userID string) (*models.Person, error)
	SetAvailability(ctx context.Context, caller models.Caller, availability models.Availability) (*models.Person, error)

	// History
	ListDonations(ctx context.Context, caller models.Caller) ([]models.Donation, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo      userRepo.UserRepository
	Donations donationRepo.DonationRepository
	// Cache, when set, is invalidated after profile writes.
	Cache proximity.CacheInvalidator
}

func NewUserService(repo userRepo.UserRepository, donations donationRepo.DonationRepository) *DefaultUserService {
	return &DefaultUserService{Repo: repo, Donations: donations}
}

// ProfileInput carries the editable profile fields. Empty fields keep their
// stored value on update.
type ProfileInput struct {
	FirstName        string                          `json:"firstName"`
	LastName         string                          `json:"lastName"`
	PhoneNumber      string                          `json:"phoneNumber"`
	Role             string                          `json:"role"`
	BloodType        string                          `json:"bloodType"`
	Location         string                          `json:"location"`
	Coordinates      *models.GeoPoint                `json:"coordinates"`
	Availability     string                          `json:"availability"`
	HealthConditions string                          `json:"healthConditions"`
	FCMToken         string                          `json:"fcmToken"`
	Preferences      *models.NotificationPreferences `json:"notificationPreferences"`
}
