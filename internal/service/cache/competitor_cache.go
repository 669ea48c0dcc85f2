// Package cache stores competitor observation sets on top of pkg/cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceWise/internal/domain/models"
	pkgcache "PriceWise/pkg/cache"
)

type entry struct {
	StoredAt time.Time                      `json:"storedAt"`
	Listings []models.CompetitorObservation `json:"listings"`
}

// CompetitorCache implements repository.CompetitorCache. It only reports an entry's age;
// callers decide whether it is still fresh.
type CompetitorCache struct {
	svc       pkgcache.Service
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// Option configures CompetitorCache.
type Option func(*CompetitorCache)

// WithPrefix namespaces keys.
func WithPrefix(prefix string) Option {
	return func(c *CompetitorCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithRetention sets how long entries are kept in the backing store. Zero keeps them until
// evicted.
func WithRetention(d time.Duration) Option {
	return func(c *CompetitorCache) {
		c.retention = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *CompetitorCache) {
		c.now = now
	}
}

// NewCompetitorCache wraps svc.
func NewCompetitorCache(svc pkgcache.Service, opts ...Option) *CompetitorCache {
	c := &CompetitorCache{
		svc:       svc,
		prefix:    "competitors",
		retention: 7 * 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CompetitorCache) Get(ctx context.Context, key string) ([]models.CompetitorObservation, time.Duration, bool, error) {
	var e entry
	if err := c.svc.Get(ctx, pkgcache.GenerateKey(c.prefix, key), &e); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("competitor cache get %s: %w", key, err)
	}
	age := c.now().Sub(e.StoredAt)
	if age < 0 {
		age = 0
	}
	return e.Listings, age, true, nil
}

func (c *CompetitorCache) Put(ctx context.Context, key string, obs []models.CompetitorObservation) error {
	return c.PutAged(ctx, key, obs, 0)
}

func (c *CompetitorCache) PutAged(ctx context.Context, key string, obs []models.CompetitorObservation, age time.Duration) error {
	e := entry{StoredAt: c.now().Add(-age).UTC(), Listings: obs}
	if e.Listings == nil {
		e.Listings = []models.CompetitorObservation{}
	}
	if err := c.svc.Set(ctx, pkgcache.GenerateKey(c.prefix, key), e, c.retention); err != nil {
		return fmt.Errorf("competitor cache put %s: %w", key, err)
	}
	return nil
}
