package requestRepo

import (
	"context"

	"bloodsync/models"
)

// RequestRepository defines methods for blood request data access.
type RequestRepository interface {
	Create(ctx context.Context, req *models.BloodRequest) error
	// GetByID returns database.ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.BloodRequest, error)
	// ListByOwner returns the owner's requests, newest first.
	ListByOwner(ctx context.Context, userID string) ([]models.BloodRequest, error)
	// ListByStatus returns requests in status, newest first. Empty bloodType matches all.
	ListByStatus(ctx context.Context, status models.RequestStatus, bloodType models.BloodType) ([]models.BloodRequest, error)
	// ListByGeohashRange returns requests in status whose geohash lies in [min, max).
	ListByGeohashRange(ctx context.Context, status models.RequestStatus, bloodType models.BloodType, min, max string) ([]models.BloodRequest, error)
	// TransitionStatus sets the status to `to` only if it currently equals `from`.
	// It reports whether the write happened. from == to only bumps updatedAt,
	// which serialises concurrent transactions touching the same request.
	TransitionStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error)
	GetAll(ctx context.Context) ([]models.BloodRequest, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
}
