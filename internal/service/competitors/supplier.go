package competitors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"
	svcmetrics "PriceWise/internal/service/metrics"
	"PriceWise/internal/service/ratelimit"
	"PriceWise/pkg/logger"
	"PriceWise/pkg/util"
)

// DefaultTTL is how long a fetched market stays fresh.
const DefaultTTL = 24 * time.Hour

// Supplier answers competitor queries from the cache or by querying every source at once.
type Supplier struct {
	sources []repository.CompetitorSource
	cache   repository.CompetitorCache
	metrics repository.Metrics
	logger  *logger.Logger
	limiter *ratelimit.Limiter
	ttl     time.Duration
	timeout time.Duration
}

// SupplierOption configures Supplier.
type SupplierOption func(*Supplier)

// WithCache enables caching of merged results.
func WithCache(c repository.CompetitorCache) SupplierOption {
	return func(s *Supplier) {
		s.cache = c
	}
}

// WithTTL sets the freshness window for cached results.
func WithTTL(ttl time.Duration) SupplierOption {
	return func(s *Supplier) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSourceTimeout bounds each source call.
func WithSourceTimeout(d time.Duration) SupplierOption {
	return func(s *Supplier) {
		s.timeout = d
	}
}

// WithRateLimiter throttles calls per source name.
func WithRateLimiter(l *ratelimit.Limiter) SupplierOption {
	return func(s *Supplier) {
		s.limiter = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m repository.Metrics) SupplierOption {
	return func(s *Supplier) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) SupplierOption {
	return func(s *Supplier) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSupplier creates a supplier over sources.
func NewSupplier(sources []repository.CompetitorSource, opts ...SupplierOption) *Supplier {
	s := &Supplier{
		sources: sources,
		metrics: svcmetrics.Nop{},
		logger:  logger.NewNop(),
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey is the market key shared by the supplier and the feed ingester.
func CacheKey(q models.CompetitorQuery) string {
	return util.SlugKey(q.Keyword + "-" + q.Category)
}

// Fetch returns merged listings for q. Failing sources are logged and skipped; only a
// cancelled context is an error.
func (s *Supplier) Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error) {
	key := CacheKey(q)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	start := time.Now()
	sets := s.fanOut(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch competitors: %w", err)
	}
	merged := Merge(append(sets, s.freshFeed(ctx, key))...)
	s.metrics.RecordLatency("competitors.fetch", time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, merged); err != nil {
			s.logger.Warn("competitor cache put failed", logger.String("key", key), logger.Error(err))
			s.metrics.RecordError("cache")
		}
	}

	s.logger.Info("competitors fetched",
		logger.String("key", key),
		logger.Int("unique", len(merged)),
		logger.Duration("elapsed_ms", time.Since(start)))
	return merged, nil
}

func (s *Supplier) fromCache(ctx context.Context, key string) ([]models.CompetitorObservation, bool) {
	if s.cache == nil {
		return nil, false
	}
	obs, age, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("competitor cache get failed", logger.String("key", key), logger.Error(err))
		s.metrics.RecordError("cache")
		return nil, false
	}
	hit := ok && age < s.ttl
	s.metrics.RecordCacheLookup(hit)
	if hit {
		s.logger.Debug("competitor cache hit", logger.String("key", key), logger.Duration("age_ms", age))
	}
	return obs, hit
}

// fanOut queries all sources concurrently and returns their results in source order.
func (s *Supplier) fanOut(ctx context.Context, q models.CompetitorQuery) [][]models.CompetitorObservation {
	sets := make([][]models.CompetitorObservation, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src repository.CompetitorSource) {
			defer wg.Done()

			sctx := ctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}

			listings, err := s.fetchOne(sctx, src, q)
			if err != nil {
				s.logger.Warn("competitor source failed",
					logger.String("source", src.Name()),
					logger.Error(err))
				s.metrics.RecordSourceFetch(src.Name(), "error", 0)
				return
			}
			s.metrics.RecordSourceFetch(src.Name(), "ok", len(listings))
			s.logger.Debug("competitor source done",
				logger.String("source", src.Name()),
				logger.Int("listings", len(listings)))
			sets[i] = listings
		}(i, src)
	}
	wg.Wait()
	return sets
}

func (s *Supplier) fetchOne(ctx context.Context, src repository.CompetitorSource, q models.CompetitorQuery) (listings []models.CompetitorObservation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panic: %v", r)
		}
	}()
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, src.Name()); err != nil {
			return nil, fmt.Errorf("throttled: %w", err)
		}
	}
	return src.Fetch(ctx, q)
}

// feedKey holds feed listings apart from the marketplace set so they have their own age.
func feedKey(key string) string {
	return "feed-" + key
}

// freshFeed returns the feed listings for key that arrived within the TTL.
func (s *Supplier) freshFeed(ctx context.Context, key string) []models.CompetitorObservation {
	if s.cache == nil {
		return nil
	}
	obs, age, ok, err := s.cache.Get(ctx, feedKey(key))
	if err != nil {
		s.logger.Warn("competitor feed get failed", logger.String("key", key), logger.Error(err))
		s.metrics.RecordError("cache")
		return nil
	}
	if !ok || age >= s.ttl {
		return nil
	}
	return obs
}

// Ingest stores externally scraped listings for q and returns how many feed listings are held.
// A fresh marketplace set gets the listings merged in without its age changing, so the next
// refresh still happens on schedule. Stale sets are left alone and the listings join the next
// refresh.
func (s *Supplier) Ingest(ctx context.Context, q models.CompetitorQuery, listings []models.CompetitorObservation) (int, error) {
	if s.cache == nil {
		return 0, fmt.Errorf("ingest competitors: no cache configured")
	}
	key := CacheKey(q)

	feed := Merge(listings, s.freshFeed(ctx, key))
	if err := s.cache.Put(ctx, feedKey(key), feed); err != nil {
		return 0, fmt.Errorf("ingest competitors: %w", err)
	}

	existing, age, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("ingest competitors: %w", err)
	}
	if ok && age < s.ttl {
		if err := s.cache.PutAged(ctx, key, Merge(listings, existing), age); err != nil {
			return 0, fmt.Errorf("ingest competitors: %w", err)
		}
	}
	return len(feed), nil
}
