package pricing

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceWise/internal/domain/models"
)

func TestFitDemandCurve_DecreasingDemand(t *testing.T) {
	curve, err := FitDemandCurve(linearMarket())

	require.NoError(t, err)
	assert.Less(t, curve.Slope, 0.0)
	assert.InDelta(t, -2.0, curve.Slope, 1e-9)
	assert.InDelta(t, 150.0, curve.Intercept, 1e-9)
	assert.InDelta(t, 1.0, curve.RSquared, 1e-9)
	assert.Equal(t, models.ConfidenceHigh, curve.Confidence)
}

func TestFitDemandCurve_Errors(t *testing.T) {
	tests := []struct {
		name string
		obs  []models.CompetitorObservation
		want error
	}{
		{"single observation", []models.CompetitorObservation{obs(20, sold(5), models.ConfidenceHigh)}, ErrInsufficientData},
		{"non-positive prices dropped", []models.CompetitorObservation{
			obs(0, sold(5), models.ConfidenceHigh),
			obs(-3, sold(5), models.ConfidenceHigh),
			obs(20, sold(5), models.ConfidenceHigh),
		}, ErrInsufficientData},
		{"identical prices", []models.CompetitorObservation{
			obs(20, sold(5), models.ConfidenceHigh),
			obs(20, sold(9), models.ConfidenceMedium),
			obs(20, nil, models.ConfidenceLow),
		}, ErrDegenerateInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitDemandCurve(tt.obs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAnalyzePricing_LinearMarket(t *testing.T) {
	got := AnalyzePricing(product(10, 5), linearMarket())

	assert.Equal(t, models.StrategyDemandCurve, got.Strategy)
	assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	assert.InDelta(t, 1.0, got.RSquared, 1e-9)
	assert.Equal(t, 5, got.CompetitorCount)
	assert.Greater(t, got.RecommendedPrice, 15.0)
	assert.Empty(t, got.Warning)
	assert.Contains(t, got.Explanation, "Based on analysis of 5 competitors, we have high confidence")

	require.Len(t, got.Scenarios, DefaultScenarioCount)
	assert.GreaterOrEqual(t, got.Scenarios[0].Price, 18.0)
	assert.Equal(t, 20.0, got.Scenarios[0].Price)
	assert.Equal(t, 54.0, got.Scenarios[len(got.Scenarios)-1].Price)
	for i := 1; i < len(got.Scenarios); i++ {
		assert.Greater(t, got.Scenarios[i].Price, got.Scenarios[i-1].Price)
	}
}

func TestAnalyzePricing_RecommendationMatchesBestScenario(t *testing.T) {
	markets := map[string][]models.CompetitorObservation{
		"linear": linearMarket(),
		"mixed": {
			obs(12, sold(40), models.ConfidenceHigh),
			obs(18, nil, models.ConfidenceMedium),
			obs(22, sold(25), models.ConfidenceHigh),
			obs(30, sold(12), models.ConfidenceMedium),
			obs(35, nil, models.ConfidenceLow),
			obs(41, sold(6), models.ConfidenceHigh),
		},
	}

	for name, market := range markets {
		t.Run(name, func(t *testing.T) {
			got := AnalyzePricing(product(4, 2), market)
			require.Equal(t, models.StrategyDemandCurve, got.Strategy)

			best := got.Scenarios[0]
			for _, s := range got.Scenarios[1:] {
				if s.ExpectedProfit > best.ExpectedProfit {
					best = s
				}
			}
			assert.Equal(t, best.Price, got.RecommendedPrice)
			assert.Equal(t, best.ExpectedSales, got.PredictedSales)
			assert.Equal(t, best.ExpectedProfit, got.PredictedProfit)
		})
	}
}

func TestAnalyzePricing_FewCompetitors(t *testing.T) {
	inputs := [][]models.CompetitorObservation{
		nil,
		{obs(20, sold(10), models.ConfidenceHigh)},
		{obs(20, sold(10), models.ConfidenceHigh), obs(30, sold(5), models.ConfidenceHigh)},
	}

	for _, in := range inputs {
		got := AnalyzePricing(product(10, 5), in)

		assert.Equal(t, models.ConfidenceLow, got.Confidence)
		assert.Equal(t, 0, got.CompetitorCount)
		assert.NotEmpty(t, got.Warning)
		assert.Equal(t, 37.5, got.RecommendedPrice)
		assert.Equal(t, 30.0, got.PredictedSales)
		assert.Equal(t, 675.0, got.PredictedProfit)
		assert.Equal(t, models.StrategyCostPlus, got.Strategy)
	}
}

func TestEvaluate_FallbackReasons(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name      string
		product   models.ProductCostInput
		obs       []models.CompetitorObservation
		want      FallbackReason
		wantCurve bool
	}{
		{"too few", product(10, 5), linearMarket()[:2], ReasonTooFewInputs, false},
		{"insufficient after filtering", product(10, 5), []models.CompetitorObservation{
			obs(0, nil, models.ConfidenceLow),
			obs(-1, nil, models.ConfidenceLow),
			obs(20, nil, models.ConfidenceLow),
		}, ReasonInsufficientData, false},
		{"degenerate", product(10, 5), []models.CompetitorObservation{
			obs(20, sold(5), models.ConfidenceHigh),
			obs(20, sold(6), models.ConfidenceHigh),
			obs(20, sold(7), models.ConfidenceHigh),
		}, ReasonDegenerateInput, false},
		{"poor fit", product(1, 1), []models.CompetitorObservation{
			obs(10, sold(50), models.ConfidenceHigh),
			obs(20, sold(10), models.ConfidenceHigh),
			obs(30, sold(10), models.ConfidenceHigh),
			obs(40, sold(50), models.ConfidenceHigh),
		}, ReasonPoorFit, true},
		{"cost above market", product(100, 0), []models.CompetitorObservation{
			obs(10, sold(50), models.ConfidenceHigh),
			obs(11, sold(45), models.ConfidenceHigh),
			obs(12, sold(40), models.ConfidenceHigh),
			obs(13, sold(35), models.ConfidenceHigh),
			obs(14, sold(30), models.ConfidenceHigh),
		}, ReasonEmptyPriceRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Evaluate(tt.product, tt.obs)

			assert.Equal(t, tt.want, res.Fallback)
			assert.Equal(t, tt.wantCurve, res.Curve != nil)
			assert.Equal(t, models.StrategyCostPlus, res.Analysis.Strategy)
			assert.Equal(t, CostPlus(tt.product), res.Analysis)
		})
	}
}

func TestAnalyzePricing_ConfidenceTiers(t *testing.T) {
	medium := []models.CompetitorObservation{
		obs(25, sold(100), models.ConfidenceMedium),
		obs(30, sold(90), models.ConfidenceMedium),
		obs(35, sold(80), models.ConfidenceMedium),
		obs(40, sold(70), models.ConfidenceMedium),
		obs(45, sold(60), models.ConfidenceMedium),
	}
	got := AnalyzePricing(product(10, 5), medium)
	assert.Equal(t, models.ConfidenceMedium, got.Confidence)
	assert.Contains(t, got.Explanation, "moderate confidence")
	assert.Empty(t, got.Warning)

	got = AnalyzePricing(product(10, 5), linearMarket()[:3])
	assert.Equal(t, models.ConfidenceLow, got.Confidence)
	assert.Equal(t, models.StrategyDemandCurve, got.Strategy)
	assert.Contains(t, got.Explanation, "limited confidence")
	assert.Equal(t, lowConfidenceWarning, got.Warning)
}

func TestAnalyzePricing_OutlierKeptInRangeAndCount(t *testing.T) {
	market := append(linearMarket(), obs(500, nil, models.ConfidenceLow))

	got := AnalyzePricing(product(10, 5), market)

	assert.Equal(t, models.StrategyDemandCurve, got.Strategy)
	assert.Equal(t, 6, got.CompetitorCount)
	assert.Equal(t, market, got.Competitors)
	assert.Equal(t, 600.0, got.Scenarios[len(got.Scenarios)-1].Price)
	assert.Nil(t, got.Competitors[5].SalesVolume, "input observations are never mutated")
}

func TestAnalyzePricing_Idempotent(t *testing.T) {
	market := append(linearMarket(), obs(33, nil, models.ConfidenceMedium))

	first, err := json.Marshal(AnalyzePricing(product(10, 5), market))
	require.NoError(t, err)
	second, err := json.Marshal(AnalyzePricing(product(10, 5), market))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestAnalyzePricing_ConcurrentCallsShareInput(t *testing.T) {
	market := append(linearMarket(), obs(33, nil, models.ConfidenceMedium), obs(400, sold(1), models.ConfidenceLow))
	want := AnalyzePricing(product(10, 5), market)

	const workers = 16
	results := make([]models.PricingAnalysis, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = AnalyzePricing(product(10, 5), market)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "worker %d", i)
	}
	assert.Nil(t, market[5].SalesVolume)
}

func TestEngine_ScenarioCount(t *testing.T) {
	got := NewEngine(WithScenarioCount(5)).Analyze(product(10, 5), linearMarket())
	assert.Len(t, got.Scenarios, 5)

	got = NewEngine(WithScenarioCount(1)).Analyze(product(10, 5), linearMarket())
	assert.Len(t, got.Scenarios, DefaultScenarioCount, "invalid counts are ignored")
}
