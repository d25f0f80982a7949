// Package proximity answers "what is near this point" with geocell range
// scans followed by an exact great-circle filter.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bloodsync/models"
	"bloodsync/services/geocell"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Candidate is a record that can be located and attributed to an owner.
type Candidate interface {
	RecordID() string
	OwnerID() string
	Point() *models.GeoPoint
	Created() time.Time
}

// Filter narrows candidates before any geometry is applied.
type Filter struct {
	// Status is a request status for requests and an availability for donors.
	Status    string           `json:"status"`
	BloodType models.BloodType `json:"bloodType,omitempty"`
}

// Source is the record set a search runs against.
type Source[T Candidate] interface {
	// Name namespaces cache keys and metrics.
	Name() string
	// All returns every record matching f.
	All(ctx context.Context, f Filter) ([]T, error)
	// InRange returns records matching f whose geocell key lies in r.
	InRange(ctx context.Context, f Filter, r geocell.Range) ([]T, error)
}

// Query describes one proximity search. A nil Center selects the
// newest-first fallback.
type Query struct {
	Center         *models.GeoPoint
	RadiusMeters   float64
	Filter         Filter
	ExcludeOwnerID string
	// Precision forces the geocell length; 0 picks it automatically.
	Precision int
}

// Result pairs a record with its distance from the center, when there is one.
type Result[T Candidate] struct {
	Record         T        `json:"record"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
}

// Engine holds the optional result cache shared by every search.
type Engine struct {
	Cache    *redis.Client
	CacheTTL time.Duration
	Logger   *zap.Logger
}

func NewEngine(cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Cache: cache, CacheTTL: ttl, Logger: logger}
}

// Search runs q against src. With a center, the result is exactly the set of
// matching records within the radius, sorted by distance, whatever cell
// precision is used. Without one, it is every matching record, newest first.
func Search[T Candidate](ctx context.Context, e *Engine, src Source[T], q Query) ([]Result[T], error) {
	mode := "radius"
	if q.Center == nil {
		mode = "recent"
	}
	start := time.Now()
	defer func() {
		queryDuration.WithLabelValues(src.Name(), mode).Observe(time.Since(start).Seconds())
	}()

	if q.Center != nil {
		if err := q.Center.Validate(); err != nil {
			return nil, ErrInvalidQuery.Withf("%v", err)
		}
		if q.RadiusMeters <= 0 {
			return nil, ErrInvalidQuery.Withf("radius must be positive")
		}
	}

	gen, cacheable := e.generation(ctx, src.Name())
	if cacheable {
		if cached, ok := e.lookup(ctx, src.Name(), gen, q); ok {
			var out []Result[T]
			if err := decodeResults(cached, &out); err == nil {
				return out, nil
			}
		}
	}

	var (
		out []Result[T]
		err error
	)
	if q.Center == nil {
		out, err = recent(ctx, src, q)
	} else {
		out, err = nearby(ctx, src, q)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			return nil, err
		}
		queryFailures.WithLabelValues(src.Name()).Inc()
		e.logger().Warn("proximity query failed",
			zap.String("source", src.Name()),
			zap.String("mode", mode),
			zap.Error(err))
		return nil, ErrQueryUnavailable.Wrap(err)
	}

	if cacheable {
		e.store(ctx, src.Name(), gen, q, out)
	}
	return out, nil
}

func recent[T Candidate](ctx context.Context, src Source[T], q Query) ([]Result[T], error) {
	records, err := src.All(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	out := make([]Result[T], 0, len(records))
	for _, rec := range records {
		if q.ExcludeOwnerID != "" && rec.OwnerID() == q.ExcludeOwnerID {
			continue
		}
		out = append(out, Result[T]{Record: rec})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Record, out[j].Record
		if !a.Created().Equal(b.Created()) {
			return a.Created().After(b.Created())
		}
		return a.RecordID() < b.RecordID()
	})
	return out, nil
}

func nearby[T Candidate](ctx context.Context, src Source[T], q Query) ([]Result[T], error) {
	var ranges []geocell.Range
	if q.Precision > 0 {
		var err error
		ranges, err = geocell.BoundingCellsAtPrecision(*q.Center, q.RadiusMeters, q.Precision)
		if err != nil {
			return nil, ErrInvalidQuery.Wrap(err)
		}
	} else {
		ranges = geocell.BoundingCells(*q.Center, q.RadiusMeters)
	}
	cellsScanned.Observe(float64(len(ranges)))

	candidates, err := scanRanges(ctx, src, q.Filter, ranges)
	if err != nil {
		return nil, err
	}

	out := make([]Result[T], 0, len(candidates))
	for _, rec := range candidates {
		p := rec.Point()
		if p == nil {
			continue
		}
		d := geocell.Distance(*q.Center, *p)
		if d > q.RadiusMeters {
			falsePositivesDropped.WithLabelValues(src.Name()).Inc()
			continue
		}
		if q.ExcludeOwnerID != "" && rec.OwnerID() == q.ExcludeOwnerID {
			continue
		}
		out = append(out, Result[T]{Record: rec, DistanceMeters: &d})
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := *out[i].DistanceMeters, *out[j].DistanceMeters
		if di != dj {
			return di < dj
		}
		return out[i].Record.RecordID() < out[j].Record.RecordID()
	})
	return out, nil
}

// scanRanges queries every range concurrently and merges the results by id.
func scanRanges[T Candidate](ctx context.Context, src Source[T], f Filter, ranges []geocell.Range) ([]T, error) {
	type scan struct {
		records []T
		err     error
	}

	results := make(chan scan, len(ranges))
	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(r geocell.Range) {
			defer wg.Done()
			recs, err := src.InRange(ctx, f, r)
			if err != nil {
				err = fmt.Errorf("scan %s [%s, %s): %w", src.Name(), r.Min, r.Max, err)
			}
			results <- scan{records: recs, err: err}
		}(r)
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{})
	var merged []T
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		for _, rec := range res.records {
			if _, dup := seen[rec.RecordID()]; dup {
				continue
			}
			seen[rec.RecordID()] = struct{}{}
			merged = append(merged, rec)
		}
	}
	return merged, nil
}

func (e *Engine) logger() *zap.Logger {
	if e == nil || e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
