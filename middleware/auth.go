// middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bloodsync/models"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	callerKey = "caller"

	// Verified callers are cached under the token hash for at most tokenCacheTTL.
	tokenCachePrefix = "auth:caller:"
	tokenCacheTTL    = 10 * time.Minute
)

// TokenVerifier turns a bearer token into a caller and its expiry (unix seconds, 0 if unknown).
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Caller, int64, error)
}

// AuthMiddleware verifies the bearer token and stores the caller in the context.
// Verified tokens are cached in Redis (by hash) when a cache client is given.
// Websocket upgrades may pass the token as ?token= since browsers cannot set headers.
func AuthMiddleware(verifier TokenVerifier, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Missing or invalid Authorization header")
			return
		}

		ctx := c.Request.Context()
		key := tokenCachePrefix + utils.HashToken(tokenString)

		if caller, ok := cachedCaller(ctx, cache, key); ok {
			c.Set(callerKey, *caller)
			c.Next()
			return
		}

		caller, exp, err := verifier.Verify(ctx, tokenString)
		if err != nil || caller == nil || caller.UserID == "" {
			utils.GetLogger().Debug("Token verification failed", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Invalid token")
			return
		}
		cacheCaller(ctx, cache, key, caller, exp)

		c.Set(callerKey, *caller)
		c.Next()
	}
}

// CallerFrom returns the authenticated caller set by AuthMiddleware.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}

// SetCaller puts caller into the gin context. Used by tests and internal routes.
func SetCaller(c *gin.Context, caller models.Caller) {
	c.Set(callerKey, caller)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

func cachedCaller(ctx context.Context, cache *redis.Client, key string) (*models.Caller, bool) {
	if cache == nil {
		return nil, false
	}
	raw, err := cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var caller models.Caller
	if err := json.Unmarshal(raw, &caller); err != nil || caller.UserID == "" {
		return nil, false
	}
	return &caller, true
}

func cacheCaller(ctx context.Context, cache *redis.Client, key string, caller *models.Caller, exp int64) {
	if cache == nil {
		return
	}
	ttl := tokenCacheTTL
	if exp > 0 {
		if remaining := time.Until(time.Unix(exp, 0)); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(caller)
	if err != nil {
		return
	}
	if err := cache.Set(ctx, key, raw, ttl).Err(); err != nil {
		utils.GetLogger().Debug("Failed to cache verified token", zap.Error(err))
	}
}
