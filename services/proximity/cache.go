package proximity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "proximity:"

	SourceRequests = "requests"
	SourceDonors   = "donors"
)

// CacheInvalidator drops cached search results after the records behind a
// source change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sources ...string)
}

func generationKey(source string) string {
	return cacheKeyPrefix + "gen:" + source
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func cacheKey(source string, gen int64, q Query) string {
	center := "none"
	if q.Center != nil {
		center = formatCoord(q.Center.Lat) + "," + formatCoord(q.Center.Lng)
	}
	return fmt.Sprintf("%s%s:%d:%s:%s:%s:%s:%s:%d",
		cacheKeyPrefix, source, gen, center, formatCoord(q.RadiusMeters),
		q.Filter.Status, q.Filter.BloodType, q.ExcludeOwnerID, q.Precision)
}

func (e *Engine) cacheEnabled() bool {
	return e != nil && e.Cache != nil && e.CacheTTL > 0
}

// generation returns the current write generation of source. It must be read
// before the store is queried so a result is never filed under a newer
// generation than the data it saw.
func (e *Engine) generation(ctx context.Context, source string) (int64, bool) {
	if !e.cacheEnabled() {
		return 0, false
	}
	gen, err := e.Cache.Get(ctx, generationKey(source)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		e.logger().Debug("failed to read proximity cache generation", zap.String("source", source), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (e *Engine) lookup(ctx context.Context, source string, gen int64, q Query) ([]byte, bool) {
	data, err := e.Cache.Get(ctx, cacheKey(source, gen, q)).Bytes()
	if err != nil {
		cacheResults.WithLabelValues("miss").Inc()
		return nil, false
	}
	cacheResults.WithLabelValues("hit").Inc()
	return data, true
}

func (e *Engine) store(ctx context.Context, source string, gen int64, q Query, results any) {
	data, err := json.Marshal(results)
	if err != nil {
		e.logger().Debug("failed to marshal proximity results", zap.Error(err))
		return
	}
	if err := e.Cache.Set(ctx, cacheKey(source, gen, q), data, e.CacheTTL).Err(); err != nil {
		e.logger().Debug("failed to cache proximity results", zap.String("source", source), zap.Error(err))
	}
}

// Invalidate bumps the generation of each source, orphaning every cached
// result for it. Call it after the write has committed.
func (e *Engine) Invalidate(ctx context.Context, sources ...string) {
	if !e.cacheEnabled() {
		return
	}
	for _, source := range sources {
		if err := e.Cache.Incr(ctx, generationKey(source)).Err(); err != nil {
			cacheResults.WithLabelValues("invalidate_error").Inc()
			e.logger().Warn("failed to invalidate proximity cache", zap.String("source", source), zap.Error(err))
		}
	}
}

func decodeResults(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
