package memory

import (
	"context"
	"fmt"
	"time"

	"bloodsync/database"
	requestRepo "bloodsync/database/repository/request"
	"bloodsync/models"
)

type requestStore struct{ s *Store }

// Requests returns the bloodRequests collection.
func (s *Store) Requests() requestRepo.RequestRepository { return requestStore{s} }

func (r requestStore) Create(ctx context.Context, req *models.BloodRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer r.s.lockWrite(ctx)()

	if _, ok := r.s.requests[req.ID]; ok {
		return fmt.Errorf("failed to create blood request: %w", database.ErrDuplicateKey)
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	r.s.requests[req.ID] = *req
	return nil
}

func (r requestStore) GetByID(ctx context.Context, id string) (*models.BloodRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, fmt.Errorf("blood request %s: %w", id, database.ErrNotFound)
	}
	return &req, nil
}

func (r requestStore) ListByOwner(ctx context.Context, userID string) ([]models.BloodRequest, error) {
	return r.list(ctx, func(req models.BloodRequest) bool { return req.UserID == userID }, newestRequestFirst)
}

func (r requestStore) ListByStatus(ctx context.Context, status models.RequestStatus, bloodType models.BloodType) ([]models.BloodRequest, error) {
	return r.list(ctx, func(req models.BloodRequest) bool {
		return statusMatch(req, status, bloodType)
	}, newestRequestFirst)
}

func (r requestStore) ListByGeohashRange(ctx context.Context, status models.RequestStatus, bloodType models.BloodType, min, max string) ([]models.BloodRequest, error) {
	return r.list(ctx, func(req models.BloodRequest) bool {
		return statusMatch(req, status, bloodType) && req.Geohash >= min && req.Geohash < max
	}, func(a, b models.BloodRequest) int { return compareStrings(a.Geohash, b.Geohash) })
}

func (r requestStore) TransitionStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer r.s.lockWrite(ctx)()

	req, ok := r.s.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	r.s.requests[id] = req
	return true, nil
}

func (r requestStore) GetAll(ctx context.Context) ([]models.BloodRequest, error) {
	return r.list(ctx, func(models.BloodRequest) bool { return true }, newestRequestFirst)
}

func (r requestStore) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.RequestStatus]int64)
	for _, req := range all {
		counts[req.Status]++
	}
	return counts, nil
}

func (r requestStore) list(ctx context.Context, keep func(models.BloodRequest) bool, less func(a, b models.BloodRequest) int) ([]models.BloodRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.requests, keep, less, func(req models.BloodRequest) string { return req.ID }), nil
}

func statusMatch(req models.BloodRequest, status models.RequestStatus, bloodType models.BloodType) bool {
	return (status == "" || req.Status == status) && (bloodType == "" || req.BloodType == bloodType)
}

func newestRequestFirst(a, b models.BloodRequest) int { return b.CreatedAt.Compare(a.CreatedAt) }
