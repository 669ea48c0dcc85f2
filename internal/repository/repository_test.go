package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"PriceWise/internal/domain/models"
	"PriceWise/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id, keyword string, at time.Time) *models.AnalysisRecord {
	return &models.AnalysisRecord{
		ID:        id,
		CreatedAt: at,
		Product:   models.ProductCostInput{Name: "Candle", Keyword: keyword, Category: "home", UnitCost: 8, VariableCosts: 2},
		Analysis: models.PricingAnalysis{
			RecommendedPrice: 25,
			Confidence:       models.ConfidenceLow,
			Strategy:         models.StrategyCostPlus,
		},
		FallbackReason: "too_few_competitors",
		Trigger:        models.TriggerAPI,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	for i := 0; i < 5; i++ {
		kw := "candle"
		if i%2 == 1 {
			kw = "mug"
		}
		require.NoError(t, s.Save(ctx, record(fmt.Sprintf("id-%d", i), kw, t0.Add(time.Duration(i)*time.Hour))))
	}

	got, err := s.Get(ctx, "id-3")
	require.NoError(t, err)
	assert.Equal(t, "mug", got.Product.Keyword)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := s.List(ctx, models.AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "id-4", all[0].ID)
	assert.Equal(t, "id-0", all[4].ID)

	candles, err := s.List(ctx, models.AnalysisFilter{Keyword: "candle", From: t0.Add(time.Hour), Limit: 1})
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, "id-4", candles[0].ID)

	windowed, err := s.List(ctx, models.AnalysisFilter{From: t0.Add(time.Hour), To: t0.Add(3 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, windowed, 3)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, record("a", "candle", t0)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Product.Keyword = "changed"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "candle", again.Product.Keyword)
}

func TestBuildListQuery(t *testing.T) {
	q, args := buildListQuery("pricing_analyses", "id", models.AnalysisFilter{
		Keyword: "candle",
		From:    t0,
		Limit:   1000,
	}, pgPlaceholder)

	assert.Equal(t, "SELECT id FROM pricing_analyses WHERE keyword = $1 AND created_at >= $2 ORDER BY created_at DESC LIMIT $3", q)
	assert.Equal(t, []any{"candle", t0, maxListLimit}, args)

	q, args = buildListQuery("db.t", "id", models.AnalysisFilter{}, func(int) string { return "?" })
	assert.Equal(t, "SELECT id FROM db.t ORDER BY created_at DESC LIMIT ?", q)
	assert.Equal(t, []any{defaultListLimit}, args)
}

func TestRecordCodecRoundTrip(t *testing.T) {
	in := record("x", "candle", t0)
	in.Analysis.Scenarios = []models.PriceScenario{{Price: 20, ExpectedSales: 40, ExpectedProfit: 400}}

	product, analysis, err := encodeRecord(in)
	require.NoError(t, err)

	var out models.AnalysisRecord
	require.NoError(t, decodeRecord(&out, product, analysis))
	assert.Equal(t, in.Product, out.Product)
	assert.Equal(t, in.Analysis, out.Analysis)
}

func TestClickHouseSchema(t *testing.T) {
	s := NewClickHouseStore(nil, "pricewise.pricing_analyses")
	stmts := s.Schema()
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS pricewise", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS pricewise.pricing_analyses")

	assert.Len(t, NewClickHouseStore(nil, "analyses").Schema(), 1)
}

type recordingProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func (p *recordingProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	prod := &recordingProducer{}
	pub := NewKafkaPublisher(prod, "pricing.analyses")

	r := record("id-1", "candle", t0)
	require.NoError(t, pub.PublishAnalysis(context.Background(), r))
	assert.Equal(t, "pricing.analyses", prod.topic)
	assert.Equal(t, []byte("candle"), prod.key)

	ev, ok := prod.value.(models.AnalysisEvent)
	require.True(t, ok)
	assert.Equal(t, "id-1", ev.ID)
	assert.Equal(t, models.StrategyCostPlus, ev.Strategy)
	assert.Equal(t, "too_few_competitors", ev.FallbackReason)

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}
