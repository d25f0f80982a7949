package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bloodsync/database/repository"
	"bloodsync/middleware"
	"bloodsync/models"
	"bloodsync/services/notification"
	"bloodsync/services/offer"
	"bloodsync/services/proximity"
	"bloodsync/services/request"
	"bloodsync/services/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testRouter mounts the handlers over the in-process store. The X-User header
// stands in for a verified token.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	dispatcher := notification.NewDispatcher(zap.NewNop())
	hub := notification.NewHub()
	notify := notification.NewNotificationService(repos.Notifications, repos.Users, dispatcher, hub, zap.NewNop())
	prox := proximity.NewProximityService(proximity.NewEngine(nil, 0, zap.NewNop()), repos.Requests, repos.Users, 100)
	offers := offer.NewOfferService(repos, notify, zap.NewNop())

	users := NewUserHandler(user.NewUserService(repos.Users, repos.Donations), prox)
	requests := NewRequestHandler(request.NewRequestService(repos.Requests), offers, prox)
	offerHandler := NewOfferHandler(offers)
	inbox := NewNotificationHandler(notify, hub)

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			middleware.SetCaller(c, models.Caller{UserID: id, Email: id + "@example.com", Role: models.RoleDonor})
		}
		c.Next()
	})
	api.POST("/users/profile", users.UpsertProfileHandler)
	api.GET("/users/me", users.GetMyProfileHandler)
	api.POST("/requests", requests.CreateRequestHandler)
	api.GET("/requests/nearby", requests.NearbyRequestsHandler)
	api.POST("/requests/:id/offers", offerHandler.CreateOfferHandler)
	api.POST("/offers/:id/respond", offerHandler.RespondToOfferHandler)
	api.GET("/notifications/unread-count", inbox.UnreadCountHandler)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createRequest(t *testing.T, r *gin.Engine, owner string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/requests", owner, map[string]any{
		"patientName":   "Asha",
		"bloodType":     "O+",
		"location":      "City Hospital",
		"urgency":       "High",
		"contactPerson": "Ravi",
		"contactPhone":  "9876543210",
		"coordinates":   map[string]float64{"lat": 12.97, "lng": 77.59},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestHandlers_RequiresCaller(t *testing.T) {
	r := testRouter(t)
	w := do(t, r, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestHandlers_ProfileRoundTrip(t *testing.T) {
	r := testRouter(t)

	w := do(t, r, http.MethodGet, "/api/users/me", "donor-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/users/profile", "donor-1", map[string]any{
		"firstName": "Meera",
		"bloodType": "O+",
		"location":  "Bengaluru",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/users/me", "donor-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Meera", decode(t, w)["firstName"])
}

func TestHandlers_CreateRequestValidation(t *testing.T) {
	r := testRouter(t)
	w := do(t, r, http.MethodPost, "/api/requests", "patient-1", map[string]any{
		"patientName": "A",
		"bloodType":   "O+",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", decode(t, w)["code"])
}

func TestHandlers_OfferLifecycle(t *testing.T) {
	r := testRouter(t)
	requestID := createRequest(t, r, "patient-1")

	w := do(t, r, http.MethodPost, "/api/requests/"+requestID+"/offers", "patient-1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SELF_DONATION", decode(t, w)["code"])

	w = do(t, r, http.MethodPost, "/api/requests/"+requestID+"/offers", "donor-1", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	offerID := decode(t, w)["offer"].(map[string]any)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/requests/"+requestID+"/offers", "donor-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_OFFER", decode(t, w)["code"])

	w = do(t, r, http.MethodGet, "/api/notifications/unread-count", "patient-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["unread"])

	w = do(t, r, http.MethodPost, "/api/offers/"+offerID+"/respond", "donor-1", map[string]any{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/offers/"+offerID+"/respond", "patient-1", map[string]any{"decision": "accept"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Fulfilled", body["request"].(map[string]any)["status"])
	assert.NotNil(t, body["donation"])

	w = do(t, r, http.MethodPost, "/api/offers/"+offerID+"/respond", "patient-1", map[string]any{"decision": "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlers_RespondRequiresDecision(t *testing.T) {
	r := testRouter(t)
	w := do(t, r, http.MethodPost, "/api/offers/x/respond", "patient-1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_NearbyRequests(t *testing.T) {
	r := testRouter(t)
	createRequest(t, r, "patient-1")

	w := do(t, r, http.MethodGet, "/api/requests/nearby?lat=12.98&lng=77.60&radiusKm=10", "donor-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, r, http.MethodGet, "/api/requests/nearby?lat=95&lng=77.60", "donor-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
