package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bloodsync/database"
	"bloodsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Requests().Create(ctx, &models.BloodRequest{ID: "r1", Status: models.RequestPending}))

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := store.Requests().TransitionStatus(ctx, "r1", models.RequestPending, models.RequestFulfilled)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, store.Donations().Create(ctx, &models.Donation{ID: "d1", RequestID: "r1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	req, err := store.Requests().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	n, err := store.Donations().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithTransaction_Commits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		return store.Notifications().Create(ctx, &models.Notification{ID: "n1", UserID: "u1"})
	})
	require.NoError(t, err)

	count, err := store.Notifications().UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTransitionStatus_IsConditional(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Offers().Create(ctx, &models.Offer{ID: "o1", Status: models.OfferPending}))

	ok, err := store.Offers().TransitionStatus(ctx, "o1", models.OfferPending, models.OfferAccepted, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Offers().TransitionStatus(ctx, "o1", models.OfferPending, models.OfferRejected, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	offer, err := store.Offers().GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, offer.Status)
	assert.NotNil(t, offer.RespondedAt)
}

func TestAutoReject_MarksOnlyPendingOffers(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Offers().Create(ctx, &models.Offer{ID: "o1", Status: models.OfferPending}))
	require.NoError(t, store.Offers().Create(ctx, &models.Offer{ID: "o2", DonorID: "d2", Status: models.OfferAccepted}))

	ok, err := store.Offers().AutoReject(ctx, "o1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Offers().AutoReject(ctx, "o2", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	o1, err := store.Offers().GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OfferRejected, o1.Status)
	assert.True(t, o1.AutoRejected)

	o2, err := store.Offers().GetByID(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, models.OfferAccepted, o2.Status)
	assert.False(t, o2.AutoRejected)
}

func TestConcurrentTransactions_OneWinner(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Requests().Create(ctx, &models.BloodRequest{ID: "r1", Status: models.RequestPending}))

	var wg sync.WaitGroup
	wins := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithTransaction(ctx, func(ctx context.Context) error {
				ok, err := store.Requests().TransitionStatus(ctx, "r1", models.RequestPending, models.RequestFulfilled)
				if err != nil {
					return err
				}
				wins <- ok
				return nil
			})
		}()
	}
	wg.Wait()
	close(wins)

	var winners int
	for ok := range wins {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestOffers_RejectsSecondPendingOfferFromSameDonor(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Offers().Create(ctx, &models.Offer{ID: "o1", RequestID: "r1", DonorID: "d1", Status: models.OfferPending}))
	err := store.Offers().Create(ctx, &models.Offer{ID: "o2", RequestID: "r1", DonorID: "d1", Status: models.OfferPending})
	assert.ErrorIs(t, err, database.ErrDuplicateKey)

	has, err := store.Offers().HasPendingOffer(ctx, "r1", "d1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRequests_ListOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Requests().Create(ctx, &models.BloodRequest{
			ID:        id,
			UserID:    "owner",
			Status:    models.RequestPending,
			Geohash:   "tdr" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	byStatus, err := store.Requests().ListByStatus(ctx, models.RequestPending, "")
	require.NoError(t, err)
	require.Len(t, byStatus, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{byStatus[0].ID, byStatus[1].ID, byStatus[2].ID})

	inRange, err := store.Requests().ListByGeohashRange(ctx, models.RequestPending, "", "tdra", "tdrc")
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "a", inRange[0].ID)
	assert.Equal(t, "b", inRange[1].ID)
}

func TestNotifications_MarkRead(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Notifications().Create(ctx, &models.Notification{ID: "n1", UserID: "u1"}))

	_, err := store.Notifications().MarkRead(ctx, "n1", "someone-else", time.Now())
	assert.ErrorIs(t, err, database.ErrNotFound)

	changed, err := store.Notifications().MarkRead(ctx, "n1", "u1", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Notifications().MarkRead(ctx, "n1", "u1", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}
