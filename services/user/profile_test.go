package user

import (
	"context"
	"testing"
	"time"

	"bloodsync/database/repository/memory"
	"bloodsync/models"
	"bloodsync/services/geocell"
	"bloodsync/services/proximity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (*DefaultUserService, *memory.Store) {
	store := memory.NewStore()
	return NewUserService(store.Users(), store.Donations()), store
}

func TestUpsertProfile_CreatesWithDefaultsAndGeohash(t *testing.T) {
	svc, _ := newTestUserService()
	caller := models.Caller{UserID: "u1", Email: "u1@example.com"}

	p, err := svc.UpsertProfile(context.Background(), caller, ProfileInput{
		FirstName:   "Ada",
		BloodType:   " o- ",
		Coordinates: &models.GeoPoint{Lat: 12.97, Lng: 77.59},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BloodONeg, p.BloodType)
	assert.Equal(t, models.RoleDonor, p.Role)
	assert.True(t, p.IsDonor)
	assert.Equal(t, models.Available, p.Availability)
	assert.Equal(t, "u1@example.com", p.Email)
	assert.Equal(t, models.DefaultNotificationPreferences(), p.Preferences)
	assert.Equal(t, geocell.Encode(models.GeoPoint{Lat: 12.97, Lng: 77.59}), p.Geohash)
	assert.Len(t, p.Geohash, geocell.StoragePrecision)
}

func TestUpsertProfile_PartialUpdateRecomputesGeohash(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	caller := models.Caller{UserID: "u1", Email: "u1@example.com"}

	_, err := svc.UpsertProfile(ctx, caller, ProfileInput{FirstName: "Ada", Coordinates: &models.GeoPoint{Lat: 1, Lng: 1}})
	require.NoError(t, err)

	p, err := svc.UpsertProfile(ctx, caller, ProfileInput{
		Role:        "patient",
		Coordinates: &models.GeoPoint{Lat: -33.86, Lng: 151.21},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, models.RolePatient, p.Role)
	assert.False(t, p.IsDonor)
	assert.Equal(t, geocell.Encode(models.GeoPoint{Lat: -33.86, Lng: 151.21}), p.Geohash)

	stored, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.Geohash, stored.Geohash)
}

func TestUpsertProfile_Validation(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	caller := models.Caller{UserID: "u1"}

	cases := map[string]ProfileInput{
		"blood type":   {BloodType: "C+"},
		"role":         {Role: "admin"},
		"coordinates":  {Coordinates: &models.GeoPoint{Lat: 91}},
		"availability": {Availability: "Sometimes"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpsertProfile(ctx, caller, input)
			require.Error(t, err)
		})
	}

	_, err := svc.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSetAvailability(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	caller := models.Caller{UserID: "u1"}

	_, err := svc.SetAvailability(ctx, caller, models.Unavailable)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.UpsertProfile(ctx, caller, ProfileInput{FirstName: "Ada"})
	require.NoError(t, err)

	p, err := svc.SetAvailability(ctx, caller, models.Unavailable)
	require.NoError(t, err)
	assert.Equal(t, models.Unavailable, p.Availability)

	_, err = svc.SetAvailability(ctx, caller, models.Availability("Busy"))
	assert.ErrorIs(t, err, ErrInvalidAvailability)
}

func TestListDonations_NewestFirst(t *testing.T) {
	svc, store := newTestUserService()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Donations().Create(ctx, &models.Donation{ID: "d1", DonorID: "u1", RequestID: "r1", DonationDate: base}))
	require.NoError(t, store.Donations().Create(ctx, &models.Donation{ID: "d2", DonorID: "u1", RequestID: "r2", DonationDate: base.Add(time.Hour)}))
	require.NoError(t, store.Donations().Create(ctx, &models.Donation{ID: "d3", DonorID: "u2", RequestID: "r3", DonationDate: base}))

	list, err := svc.ListDonations(ctx, models.Caller{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d2", list[0].ID)

	empty, err := svc.ListDonations(ctx, models.Caller{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

type recordingCache struct {
	sources []string
}

func (r *recordingCache) Invalidate(_ context.Context, sources ...string) {
	r.sources = append(r.sources, sources...)
}

func TestProfileWrites_InvalidateDonorSearches(t *testing.T) {
	svc, _ := newTestUserService()
	cache := &recordingCache{}
	svc.Cache = cache
	ctx := context.Background()
	caller := models.Caller{UserID: "u1", Email: "u1@example.com"}

	_, err := svc.UpsertProfile(ctx, caller, ProfileInput{FirstName: "Ada", BloodType: "O-"})
	require.NoError(t, err)
	_, err = svc.UpsertProfile(ctx, caller, ProfileInput{Location: "Mysuru"})
	require.NoError(t, err)
	_, err = svc.SetAvailability(ctx, caller, models.Unavailable)
	require.NoError(t, err)

	assert.Equal(t, []string{proximity.SourceDonors, proximity.SourceDonors, proximity.SourceDonors}, cache.sources)

	_, err = svc.SetAvailability(ctx, caller, models.Availability("Busy"))
	require.Error(t, err)
	assert.Len(t, cache.sources, 3)
}
