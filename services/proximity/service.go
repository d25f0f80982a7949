package proximity

import (
	"context"

	requestRepo "bloodsync/database/repository/request"
	userRepo "bloodsync/database/repository/user"
	"bloodsync/models"
	"bloodsync/services/geocell"
)

const defaultRadiusKm = 100

// NearbyParams is the caller-facing form of a search.
type NearbyParams struct {
	Center    *models.GeoPoint
	RadiusKm  float64
	BloodType models.BloodType
}

// ProximityService finds pending requests for donors and available donors for patients.
type ProximityService interface {
	NearbyRequests(ctx context.Context, caller models.Caller, params NearbyParams) ([]Result[models.BloodRequest], error)
	NearbyDonors(ctx context.Context, caller models.Caller, params NearbyParams) ([]DonorMatch, error)
}

// DonorMatch is a donor search hit as shown to other users.
type DonorMatch struct {
	Donor          models.DonorProfile `json:"donor"`
	DistanceMeters *float64            `json:"distanceMeters,omitempty"`
}

// DefaultProximityService implements ProximityService over the repositories.
type DefaultProximityService struct {
	Engine          *Engine
	Requests        requestRepo.RequestRepository
	Users           userRepo.UserRepository
	DefaultRadiusKm float64
}

func NewProximityService(engine *Engine, requests requestRepo.RequestRepository, users userRepo.UserRepository, defaultRadiusKm float64) *DefaultProximityService {
	return &DefaultProximityService{
		Engine:          engine,
		Requests:        requests,
		Users:           users,
		DefaultRadiusKm: defaultRadiusKm,
	}
}

// NearbyRequests lists Pending requests around the caller, excluding the caller's own.
func (s *DefaultProximityService) NearbyRequests(ctx context.Context, caller models.Caller, params NearbyParams) ([]Result[models.BloodRequest], error) {
	q := s.query(caller, params, string(models.RequestPending))
	return Search[models.BloodRequest](ctx, s.Engine, RequestSource{Repo: s.Requests}, q)
}

// NearbyDonors lists available donors around the caller, excluding the caller.
// Only the public part of each profile is returned.
func (s *DefaultProximityService) NearbyDonors(ctx context.Context, caller models.Caller, params NearbyParams) ([]DonorMatch, error) {
	q := s.query(caller, params, string(models.Available))
	results, err := Search[models.Person](ctx, s.Engine, DonorSource{Repo: s.Users}, q)
	if err != nil {
		return nil, err
	}
	matches := make([]DonorMatch, 0, len(results))
	for i := range results {
		matches = append(matches, DonorMatch{
			Donor:          results[i].Record.Public(),
			DistanceMeters: results[i].DistanceMeters,
		})
	}
	return matches, nil
}

func (s *DefaultProximityService) query(caller models.Caller, params NearbyParams, status string) Query {
	radiusKm := params.RadiusKm
	if radiusKm <= 0 {
		radiusKm = s.DefaultRadiusKm
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	return Query{
		Center:         params.Center,
		RadiusMeters:   radiusKm * 1000,
		Filter:         Filter{Status: status, BloodType: params.BloodType},
		ExcludeOwnerID: caller.UserID,
	}
}

// RequestSource adapts the blood request repository.
type RequestSource struct {
	Repo requestRepo.RequestRepository
}

func (RequestSource) Name() string { return SourceRequests }

func (s RequestSource) All(ctx context.Context, f Filter) ([]models.BloodRequest, error) {
	return s.Repo.ListByStatus(ctx, models.RequestStatus(f.Status), f.BloodType)
}

func (s RequestSource) InRange(ctx context.Context, f Filter, r geocell.Range) ([]models.BloodRequest, error) {
	return s.Repo.ListByGeohashRange(ctx, models.RequestStatus(f.Status), f.BloodType, r.Min, r.Max)
}

// DonorSource adapts the user repository to donors.
type DonorSource struct {
	Repo userRepo.UserRepository
}

func (DonorSource) Name() string { return SourceDonors }

func (s DonorSource) All(ctx context.Context, f Filter) ([]models.Person, error) {
	return s.Repo.ListDonors(ctx, models.Availability(f.Status), f.BloodType)
}

func (s DonorSource) InRange(ctx context.Context, f Filter, r geocell.Range) ([]models.Person, error) {
	return s.Repo.ListDonorsInRange(ctx, models.Availability(f.Status), f.BloodType, r.Min, r.Max)
}
