package admin

import (
	"context"

	"bloodsync/database/repository"
	"bloodsync/models"
)

type AdminService interface {
	Stats(ctx context.Context) (*Stats, error)
	AllRequests(ctx context.Context) ([]models.BloodRequest, error)
	AllDonations(ctx context.Context) ([]models.Donation, error)
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Repos *repository.Repositories
}

func NewAdminService(repos *repository.Repositories) *DefaultAdminService {
	return &DefaultAdminService{Repos: repos}
}

// Stats is the dashboard summary.
type Stats struct {
	Users            int64                          `json:"users"`
	Donors           int64                          `json:"donors"`
	Requests         int64                          `json:"requests"`
	RequestsByStatus map[models.RequestStatus]int64 `json:"requestsByStatus"`
	Donations        int64                          `json:"donations"`
}
