package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bloodsync/models"
	"bloodsync/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*models.Caller, int64, error) {
	args := m.Called(ctx, token)
	caller, _ := args.Get(0).(*models.Caller)
	return caller, args.Get(1).(int64), args.Error(2)
}

func newAuthRouter(v TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	return newCachedAuthRouter(v, nil, extra...)
}

func newCachedAuthRouter(v TokenVerifier, cache *redis.Client, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(v, cache)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		caller, _ := CallerFrom(c)
		c.JSON(http.StatusOK, caller)
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	v := &MockVerifier{}
	v.On("Verify", mock.Anything, "good").Return(&models.Caller{UserID: "u1", Role: models.RoleDonor}, int64(0), nil)
	v.On("Verify", mock.Anything, "bad").Return(nil, int64(0), errors.New("expired"))
	r := newAuthRouter(v)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"invalid", "Bearer bad", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuthMiddleware_WebsocketQueryToken(t *testing.T) {
	v := &MockVerifier{}
	v.On("Verify", mock.Anything, "good").Return(&models.Caller{UserID: "u1"}, int64(0), nil)
	r := newAuthRouter(v)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "query token only accepted on upgrades")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	req.Header.Set("Upgrade", "websocket")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly(t *testing.T) {
	v := &MockVerifier{}
	v.On("Verify", mock.Anything, "admin").Return(&models.Caller{UserID: "a", Role: models.RoleAdmin}, int64(0), nil)
	v.On("Verify", mock.Anything, "donor").Return(&models.Caller{UserID: "d", Role: models.RoleDonor}, int64(0), nil)
	r := newAuthRouter(v, AdminOnly())

	for token, status := range map[string]int{"admin": http.StatusOK, "donor": http.StatusForbidden} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, token)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAuthMiddleware_CachesVerifiedTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	exp := time.Now().Add(2 * time.Minute).Unix()
	v := &MockVerifier{}
	v.On("Verify", mock.Anything, "good").Return(&models.Caller{UserID: "u1", Role: models.RoleDonor}, exp, nil).Once()
	r := newCachedAuthRouter(v, cache)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"u1"`)
	}
	v.AssertNumberOfCalls(t, "Verify", 1)

	key := tokenCachePrefix + utils.HashToken("good")
	assert.True(t, mr.Exists(key))
	assert.False(t, mr.Exists(tokenCachePrefix+"good"), "raw tokens are never stored")
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 2*time.Minute, "cache entries expire with the token")
}
