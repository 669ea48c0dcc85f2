// Package pricing estimates a linear demand curve from competitor observations and picks the
// profit-maximizing price. Everything here is a pure function of its inputs.
package pricing

import (
	"errors"
	"fmt"

	"PriceWise/internal/domain/models"
	applogger "PriceWise/pkg/logger"
)

const (
	// minCompetitors is the smallest market sample worth fitting a curve on.
	minCompetitors = 3
	// minRSquared is the fit quality below which the curve is discarded.
	minRSquared = 0.1

	floorMarkup   = 1.2
	rangeDiscount = 0.8
	rangePremium  = 1.2
)

// FallbackReason explains why an analysis used cost-plus pricing.
type FallbackReason string

const (
	ReasonNone             FallbackReason = ""
	ReasonTooFewInputs     FallbackReason = "too_few_competitors"
	ReasonInsufficientData FallbackReason = "insufficient_data"
	ReasonDegenerateInput  FallbackReason = "degenerate_input"
	ReasonPoorFit          FallbackReason = "poor_fit"
	ReasonEmptyPriceRange  FallbackReason = "empty_price_range"
)

const (
	explanationHigh   = "we have high confidence in this recommendation. The market data shows a clear price-demand relationship."
	explanationMedium = "we have moderate confidence in this recommendation. There is sufficient market data to identify pricing trends."
	explanationLow    = "we have limited confidence in this recommendation. Market data is sparse, so treat this as a starting point."

	lowConfidenceWarning = "Due to limited data, this recommendation should be validated with your own market research."
)

// Option configures Engine.
type Option func(*Engine)

// WithScenarioCount sets how many candidate prices are evaluated on a fitted curve.
func WithScenarioCount(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.numScenarios = n
		}
	}
}

// WithLogger attaches a logger used to report fallback decisions.
func WithLogger(l *applogger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs demand-curve analyses. It holds only immutable settings and is safe for
// concurrent use.
type Engine struct {
	numScenarios int
	logger       *applogger.Logger
}

// NewEngine creates an Engine with the default scenario count.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{numScenarios: DefaultScenarioCount}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// FitDemandCurve fits a demand curve with the default engine.
func FitDemandCurve(obs []models.CompetitorObservation) (models.DemandCurve, error) {
	return defaultEngine.FitDemandCurve(obs)
}

// AnalyzePricing analyzes a product with the default engine. It never fails.
func AnalyzePricing(product models.ProductCostInput, obs []models.CompetitorObservation) models.PricingAnalysis {
	return defaultEngine.Analyze(product, obs)
}

// FitDemandCurve drops non-positive prices and outliers, imputes missing sales, fits the
// weighted regression and grades the result.
func (e *Engine) FitDemandCurve(obs []models.CompetitorObservation) (models.DemandCurve, error) {
	valid := make([]models.CompetitorObservation, 0, len(obs))
	for _, o := range obs {
		if o.Price > 0 {
			valid = append(valid, o)
		}
	}
	if len(valid) < 2 {
		return models.DemandCurve{}, fmt.Errorf("%w: %d valid prices", ErrInsufficientData, len(valid))
	}

	filtered := RemoveOutliers(valid)
	if len(filtered) < 2 {
		return models.DemandCurve{}, fmt.Errorf("%w: %d prices after outlier removal", ErrInsufficientData, len(filtered))
	}

	withSales := ImputeSales(filtered)
	x := make([]float64, len(withSales))
	y := make([]float64, len(withSales))
	w := make([]float64, len(withSales))
	highCount := 0
	for i, o := range withSales {
		x[i] = o.Price
		y[i] = o.Sales()
		w[i] = Weight(o.Confidence)
		if o.Confidence == models.ConfidenceHigh {
			highCount++
		}
	}

	fit, err := WeightedLinearRegression(x, y, w)
	if err != nil {
		return models.DemandCurve{}, err
	}

	return models.DemandCurve{
		Slope:      fit.Slope,
		Intercept:  fit.Intercept,
		RSquared:   fit.RSquared,
		Confidence: ClassifyConfidence(fit.RSquared, highCount, len(filtered)),
	}, nil
}

// Result carries an analysis together with how it was produced.
type Result struct {
	Analysis models.PricingAnalysis
	// Curve is nil when the curve could not be fit.
	Curve    *models.DemandCurve
	Fallback FallbackReason
}

// Analyze recommends a price for product given the competitor observations.
func (e *Engine) Analyze(product models.ProductCostInput, obs []models.CompetitorObservation) models.PricingAnalysis {
	return e.Evaluate(product, obs).Analysis
}

// Evaluate is Analyze plus the fitted curve and the fallback reason, if any.
func (e *Engine) Evaluate(product models.ProductCostInput, obs []models.CompetitorObservation) Result {
	if len(obs) < minCompetitors {
		return e.fallback(product, nil, ReasonTooFewInputs, nil)
	}

	curve, err := e.FitDemandCurve(obs)
	if err != nil {
		reason := ReasonInsufficientData
		if errors.Is(err, ErrDegenerateInput) {
			reason = ReasonDegenerateInput
		}
		return e.fallback(product, nil, reason, err)
	}

	if curve.RSquared < minRSquared {
		return e.fallback(product, &curve, ReasonPoorFit, nil)
	}

	totalCost := product.TotalCost()
	minComp, maxComp := priceBounds(obs)
	minPrice := max(totalCost*floorMarkup, minComp*rangeDiscount)
	maxPrice := maxComp * rangePremium
	if minPrice > maxPrice {
		return e.fallback(product, &curve, ReasonEmptyPriceRange, nil)
	}

	scenarios := GenerateScenarios(minPrice, maxPrice, totalCost, curve.Slope, curve.Intercept, e.numScenarios)
	best := bestScenario(scenarios)

	analysis := models.PricingAnalysis{
		RecommendedPrice: best.Price,
		PredictedSales:   best.ExpectedSales,
		PredictedProfit:  best.ExpectedProfit,
		Confidence:       curve.Confidence,
		RSquared:         curve.RSquared,
		CompetitorCount:  len(obs),
		Scenarios:        scenarios,
		Competitors:      obs,
		Explanation:      explain(len(obs), curve.Confidence, best.Price),
		Strategy:         models.StrategyDemandCurve,
	}
	if curve.Confidence == models.ConfidenceLow {
		analysis.Warning = lowConfidenceWarning
	}

	if e.logger != nil {
		e.logger.Debug("pricing.analyze demand_curve",
			applogger.Int("competitors", len(obs)),
			applogger.Float64("slope", curve.Slope),
			applogger.Float64("r_squared", curve.RSquared),
			applogger.Float64("recommended_price", best.Price),
		)
	}

	return Result{Analysis: analysis, Curve: &curve}
}

func (e *Engine) fallback(product models.ProductCostInput, curve *models.DemandCurve, reason FallbackReason, err error) Result {
	if e.logger != nil {
		fields := []applogger.Field{applogger.String("reason", string(reason))}
		if err != nil {
			fields = append(fields, applogger.Error(err))
		}
		e.logger.Debug("pricing.analyze cost_plus fallback", fields...)
	}
	return Result{Analysis: CostPlus(product), Curve: curve, Fallback: reason}
}

// priceBounds returns the min and max price across all observations.
func priceBounds(obs []models.CompetitorObservation) (float64, float64) {
	lo, hi := obs[0].Price, obs[0].Price
	for _, o := range obs[1:] {
		lo = min(lo, o.Price)
		hi = max(hi, o.Price)
	}
	return lo, hi
}

func explain(competitors int, c models.Confidence, price float64) string {
	var tier string
	switch c {
	case models.ConfidenceHigh:
		tier = explanationHigh
	case models.ConfidenceMedium:
		tier = explanationMedium
	default:
		tier = explanationLow
	}
	return fmt.Sprintf("Based on analysis of %d competitors, %s At $%.2f, you can expect to maximize your profit.", competitors, tier, price)
}
