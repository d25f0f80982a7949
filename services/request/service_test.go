package request

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

func validInput() CreateInput {
	return CreateInput{
		PatientName:   "Ravi Kumar",
		BloodType:     "b+",
		Location:      "St. John's Hospital",
		Coordinates:   &models.GeoPoint{Lat: 12.93, Lng: 77.62},
		ContactPerson: "Meera",
		ContactPhone:  "+919876543210",
	}
}

func TestCreate_PendingWithGeohash(t *testing.T) {
	svc := NewRequestService(memory.NewStore().Requests())
	caller := models.Caller{UserID: "p1", Email: "p1@example.com"}

	req, err := svc.Create(context.Background(), caller, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, models.BloodBPos, req.BloodType)
	assert.Equal(t, models.UrgencyMedium, req.Urgency)
	assert.Equal(t, "p1", req.UserID)
	assert.Equal(t, "p1@example.com", req.ContactEmail)
	assert.Equal(t, geocell.Encode(*req.Coordinates), req.Geohash)

	got, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewRequestService(memory.NewStore().Requests())
	caller := models.Caller{UserID: "p1"}

	mutations := map[string]func(*CreateInput){
		"patient name":  func(in *CreateInput) { in.PatientName = "R" },
		"location":      func(in *CreateInput) { in.Location = "" },
		"blood type":    func(in *CreateInput) { in.BloodType = "Z" },
		"urgency":       func(in *CreateInput) { in.Urgency = "Critical" },
		"contact phone": func(in *CreateInput) { in.ContactPhone = "123" },
		"coordinates":   func(in *CreateInput) { in.Coordinates = &models.GeoPoint{Lat: 0, Lng: 200} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), caller, in)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestListMine_NewestFirst(t *testing.T) {
	store := memory.NewStore()
	svc := NewRequestService(store.Requests())
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"old", "new"} {
		require.NoError(t, store.Requests().Create(ctx, &models.BloodRequest{
			ID: id, UserID: "p1", Status: models.RequestPending, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.Requests().Create(ctx, &models.BloodRequest{ID: "other", UserID: "p2", CreatedAt: base}))

	mine, err := svc.ListMine(ctx, models.Caller{UserID: "p1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "new", mine[0].ID)
}

type recordingCache struct {
	sources []string
}

func (r *recordingCache) Invalidate(_ context.Context, sources ...string) {
	r.sources = append(r.sources, sources...)
}

func TestCreate_InvalidatesRequestSearches(t *testing.T) {
	cache := &recordingCache{}
	svc := NewRequestService(memory.NewStore().Requests())
	svc.Cache = cache

	_, err := svc.Create(context.Background(), models.Caller{UserID: "p1"}, validInput())
	require.NoError(t, err)
	assert.Equal(t, []string{proximity.SourceRequests}, cache.sources)

	bad := validInput()
	bad.PatientName = ""
	_, err = svc.Create(context.Background(), models.Caller{UserID: "p1"}, bad)
	require.Error(t, err)
	assert.Len(t, cache.sources, 1)
}
