package admin

import (
	"context"
	"fmt"
	"sync"

	"bloodsync/models"
	"bloodsync/utils"

	"go.uber.org/zap"
)

// Stats gathers the dashboard counters concurrently.
func (s *DefaultAdminService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{RequestsByStatus: map[models.RequestStatus]int64{
		models.RequestPending:   0,
		models.RequestFulfilled: 0,
		models.RequestCancelled: 0,
	}}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				utils.GetLogger().Error("Failed to compute admin stat", zap.String("stat", name), zap.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to count %s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	run("users", func() (err error) {
		stats.Users, err = s.Repos.Users.Count(ctx, false)
		return err
	})
	run("donors", func() (err error) {
		stats.Donors, err = s.Repos.Users.Count(ctx, true)
		return err
	})
	run("donations", func() (err error) {
		stats.Donations, err = s.Repos.Donations.Count(ctx)
		return err
	})
	run("requests", func() error {
		byStatus, err := s.Repos.Requests.CountByStatus(ctx)
		if err != nil {
			return err
		}
		var total int64
		for status, n := range byStatus {
			total += n
			mu.Lock()
			stats.RequestsByStatus[status] = n
			mu.Unlock()
		}
		stats.Requests = total
		return nil
	})
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

func (s *DefaultAdminService) AllRequests(ctx context.Context) ([]models.BloodRequest, error) {
	reqs, err := s.Repos.Requests.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood requests: %w", err)
	}
	if reqs == nil {
		reqs = []models.BloodRequest{}
	}
	return reqs, nil
}

func (s *DefaultAdminService) AllDonations(ctx context.Context) ([]models.Donation, error) {
	donations, err := s.Repos.Donations.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	return donations, nil
}
