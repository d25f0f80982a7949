package user

import (
	"context"
	"errors"
	"fmt"

	"bloodsync/database"
	"bloodsync/models"
	"bloodsync/services/geocell"
	"bloodsync/services/proximity"
	"bloodsync/utils"

	"go.uber.org/zap"
)

// UpsertProfile creates the caller's profile on first call and applies a
// partial update afterwards. The geohash follows the coordinates.
func (s *DefaultUserService) UpsertProfile(ctx context.Context, caller models.Caller, input ProfileInput) (*models.Person, error) {
	logger := utils.GetLogger()

	if caller.UserID == "" {
		return nil, ErrInvalidProfile.Withf("caller id is required")
	}

	existing, err := s.Repo.GetByID(ctx, caller.UserID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		logger.Error("Failed to load profile", zap.String("userID", caller.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	person := existing
	isNew := person == nil
	if isNew {
		person = &models.Person{
			ID:           caller.UserID,
			Email:        caller.Email,
			Role:         models.RoleDonor,
			Availability: models.Available,
			Preferences:  models.DefaultNotificationPreferences(),
		}
	}

	if err := applyProfile(person, input); err != nil {
		return nil, err
	}
	if person.Email == "" {
		person.Email = caller.Email
	}

	if isNew {
		if err := s.Repo.Create(ctx, person); err != nil {
			logger.Error("Failed to create profile", zap.String("userID", caller.UserID), zap.Error(err))
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		logger.Info("Profile created", zap.String("userID", person.ID), zap.String("role", string(person.Role)))
		s.invalidate(ctx)
		return person, nil
	}

	if err := s.Repo.Update(ctx, person); err != nil {
		logger.Error("Failed to update profile", zap.String("userID", caller.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	logger.Debug("Profile updated", zap.String("userID", person.ID))
	s.invalidate(ctx)
	return person, nil
}

func (s *DefaultUserService) invalidate(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, proximity.SourceDonors)
	}
}

func applyProfile(p *models.Person, in ProfileInput) error {
	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	if in.PhoneNumber != "" {
		p.PhoneNumber = in.PhoneNumber
	}
	if in.Location != "" {
		p.Location = in.Location
	}
	if in.HealthConditions != "" {
		p.HealthConditions = in.HealthConditions
	}
	if in.FCMToken != "" {
		p.FCMToken = in.FCMToken
	}
	if in.Preferences != nil {
		p.Preferences = *in.Preferences
	}

	if in.Role != "" {
		switch role := models.Role(in.Role); role {
		case models.RoleDonor, models.RolePatient:
			p.Role = role
		default:
			return ErrInvalidProfile.Withf("role must be donor or patient")
		}
	}
	p.IsDonor = p.Role == models.RoleDonor

	if in.BloodType != "" {
		bt, err := models.ParseBloodType(in.BloodType)
		if err != nil {
			return ErrInvalidProfile.Wrap(err)
		}
		p.BloodType = bt
	}

	if in.Availability != "" {
		availability, ok := parseAvailability(in.Availability)
		if !ok {
			return ErrInvalidAvailability
		}
		p.Availability = availability
	}

	if in.Coordinates != nil {
		if err := in.Coordinates.Validate(); err != nil {
			return ErrInvalidProfile.Wrap(err)
		}
		point := *in.Coordinates
		p.Coordinates = &point
		p.Geohash = geocell.Encode(point)
	}
	return nil
}

func (s *DefaultUserService) GetProfile(ctx context.Context, userID string) (*models.Person, error) {
	person, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return person, nil
}

// SetAvailability toggles whether the caller shows up in donor searches.
func (s *DefaultUserService) SetAvailability(ctx context.Context, caller models.Caller, availability models.Availability) (*models.Person, error) {
	if _, ok := parseAvailability(string(availability)); !ok {
		return nil, ErrInvalidAvailability
	}
	err := s.Repo.SetAvailability(ctx, caller.UserID, availability)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		utils.GetLogger().Error("Failed to set availability", zap.String("userID", caller.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to set availability: %w", err)
	}
	s.invalidate(ctx)
	return s.GetProfile(ctx, caller.UserID)
}

// ListDonations returns the caller's donation history, newest first.
func (s *DefaultUserService) ListDonations(ctx context.Context, caller models.Caller) ([]models.Donation, error) {
	donations, err := s.Donations.ListByDonor(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	return donations, nil
}

func parseAvailability(s string) (models.Availability, bool) {
	switch a := models.Availability(s); a {
	case models.Available, models.Unavailable:
		return a, true
	}
	return "", false
}
