package cache

import (
	"context"
	"testing"
	"time"

	"PriceWise/internal/domain/models"
	pkgcache "PriceWise/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompetitorCacheRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewCompetitorCache(mem, WithClock(clock), WithRetention(0))

	ctx := context.Background()
	_, _, ok, err := c.Get(ctx, "candle-home")
	require.NoError(t, err)
	assert.False(t, ok)

	listings := []models.CompetitorObservation{
		{Source: models.SourceEtsy, Title: "Soy candle", Price: 24, SalesVolume: models.Float64Ptr(12), Confidence: models.ConfidenceHigh},
		{Source: models.SourceEbay, Title: "Pillar candle", Price: 30, Confidence: models.ConfidenceMedium},
	}
	require.NoError(t, c.Put(ctx, "candle-home", listings))

	now = now.Add(3 * time.Hour)
	got, age, ok, err := c.Get(ctx, "candle-home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3*time.Hour, age)
	assert.Equal(t, listings, got)
}

func TestCompetitorCacheStoresEmptySets(t *testing.T) {
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewCompetitorCache(mem, WithPrefix("test"))

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "k", nil))

	got, _, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCompetitorCachePutAgedKeepsAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewCompetitorCache(mem, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	require.NoError(t, c.PutAged(ctx, "candle-home", nil, 20*time.Hour))

	now = now.Add(time.Hour)
	_, age, ok, err := c.Get(ctx, "candle-home")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 21*time.Hour, age)
}
