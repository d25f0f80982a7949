package memory

import (
	"context"
	"fmt"
	"time"

	"bloodsync/database"
	userRepo "bloodsync/database/repository/user"
	"bloodsync/models"
)

type userStore struct{ s *Store }

// Users returns the users collection.
func (s *Store) Users() userRepo.UserRepository { return userStore{s} }

func (u userStore) Create(ctx context.Context, person *models.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer u.s.lockWrite(ctx)()

	if _, ok := u.s.users[person.ID]; ok {
		return fmt.Errorf("failed to create user: %w", database.ErrDuplicateKey)
	}
	now := time.Now()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now
	u.s.users[person.ID] = *person
	return nil
}

func (u userStore) GetByID(ctx context.Context, id string) (*models.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	p, ok := u.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
	}
	return &p, nil
}

func (u userStore) Update(ctx context.Context, person *models.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer u.s.lockWrite(ctx)()

	if _, ok := u.s.users[person.ID]; !ok {
		return fmt.Errorf("user with id %s: %w", person.ID, database.ErrNotFound)
	}
	person.UpdatedAt = time.Now()
	u.s.users[person.ID] = *person
	return nil
}

func (u userStore) SetAvailability(ctx context.Context, id string, availability models.Availability) error {
	return u.modify(ctx, id, func(p *models.Person) { p.Availability = availability })
}

func (u userStore) SetLastDonationDate(ctx context.Context, id string, at time.Time) error {
	return u.modify(ctx, id, func(p *models.Person) { p.LastDonationDate = &at })
}

func (u userStore) modify(ctx context.Context, id string, fn func(*models.Person)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer u.s.lockWrite(ctx)()

	p, ok := u.s.users[id]
	if !ok {
		return fmt.Errorf("user with id %s: %w", id, database.ErrNotFound)
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	u.s.users[id] = p
	return nil
}

func isDonorMatch(p models.Person, availability models.Availability, bloodType models.BloodType) bool {
	return p.IsDonor &&
		(availability == "" || p.Availability == availability) &&
		(bloodType == "" || p.BloodType == bloodType)
}

func (u userStore) ListDonors(ctx context.Context, availability models.Availability, bloodType models.BloodType) ([]models.Person, error) {
	return u.list(ctx, func(p models.Person) bool {
		return isDonorMatch(p, availability, bloodType)
	}, newestPersonFirst)
}

func (u userStore) ListDonorsInRange(ctx context.Context, availability models.Availability, bloodType models.BloodType, min, max string) ([]models.Person, error) {
	return u.list(ctx, func(p models.Person) bool {
		return isDonorMatch(p, availability, bloodType) && p.Geohash >= min && p.Geohash < max
	}, func(a, b models.Person) int { return compareStrings(a.Geohash, b.Geohash) })
}

func (u userStore) GetAll(ctx context.Context) ([]models.Person, error) {
	return u.list(ctx, func(models.Person) bool { return true }, newestPersonFirst)
}

func (u userStore) Count(ctx context.Context, donorsOnly bool) (int64, error) {
	people, err := u.list(ctx, func(p models.Person) bool { return !donorsOnly || p.IsDonor }, newestPersonFirst)
	return int64(len(people)), err
}

func (u userStore) list(ctx context.Context, keep func(models.Person) bool, less func(a, b models.Person) int) ([]models.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return collect(u.s.users, keep, less, func(p models.Person) string { return p.ID }), nil
}

func newestPersonFirst(a, b models.Person) int { return b.CreatedAt.Compare(a.CreatedAt) }

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
