package models

// Confidence is a data-quality grade used both for single observations and for fitted curves.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence grades, higher is better. Unknown grades rank below low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Source names the marketplace a competitor observation came from.
type Source string

const (
	SourceEtsy    Source = "etsy"
	SourceEbay    Source = "ebay"
	SourceAmazon  Source = "amazon"
	SourceShopify Source = "shopify"
	SourceFeed    Source = "feed"
)

// Strategy tells which path produced a PricingAnalysis.
type Strategy string

const (
	StrategyDemandCurve Strategy = "demand_curve"
	StrategyCostPlus    Strategy = "cost_plus"
)

// ProductCostInput is the seller's product. Only the two cost fields drive the engine,
// the rest is pass-through metadata.
type ProductCostInput struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description,omitempty" validate:"max=2000"`
	Keyword       string   `json:"keyword" validate:"required,max=100"`
	Category      string   `json:"category" validate:"required,max=100"`
	UnitCost      float64  `json:"unitCost" validate:"gte=0"`
	VariableCosts float64  `json:"variableCosts" validate:"gte=0"`
	PhotoURL      string   `json:"photoUrl,omitempty" validate:"omitempty,url"`
	MonthlySales  *float64 `json:"monthlySales,omitempty" validate:"omitempty,gte=0"`
}

// TotalCost is the per-unit break-even floor.
func (p ProductCostInput) TotalCost() float64 {
	return p.UnitCost + p.VariableCosts
}

// CompetitorObservation is one external market data point.
type CompetitorObservation struct {
	Source      Source     `json:"source" validate:"omitempty,oneof=etsy ebay amazon shopify feed"`
	Title       string     `json:"title"`
	Price       float64    `json:"price" validate:"gt=0"`
	SalesVolume *float64   `json:"salesVolume,omitempty" validate:"omitempty,gte=0"`
	URL         string     `json:"url,omitempty"`
	Confidence  Confidence `json:"confidence" validate:"required,oneof=high medium low"`
}

// HasSales reports whether the observation carries a usable (non-zero) sales volume.
func (o CompetitorObservation) HasSales() bool {
	return o.SalesVolume != nil && *o.SalesVolume > 0
}

// Sales returns the sales volume or zero when absent.
func (o CompetitorObservation) Sales() float64 {
	if o.SalesVolume == nil {
		return 0
	}
	return *o.SalesVolume
}

// DemandCurve is a fitted linear model: sales = Slope*price + Intercept.
type DemandCurve struct {
	Slope      float64    `json:"slope"`
	Intercept  float64    `json:"intercept"`
	RSquared   float64    `json:"rSquared"`
	Confidence Confidence `json:"confidence"`
}

// PriceScenario is one candidate point on the evaluated curve.
type PriceScenario struct {
	Price          float64 `json:"price"`
	ExpectedSales  float64 `json:"expectedSales"`
	ExpectedProfit float64 `json:"expectedProfit"`
}

// PricingAnalysis is the engine output.
type PricingAnalysis struct {
	RecommendedPrice float64                 `json:"recommendedPrice"`
	PredictedSales   float64                 `json:"predictedSales"`
	PredictedProfit  float64                 `json:"predictedProfit"`
	Confidence       Confidence              `json:"confidence"`
	RSquared         float64                 `json:"rSquared"`
	CompetitorCount  int                     `json:"competitorCount"`
	Scenarios        []PriceScenario         `json:"scenarios"`
	Competitors      []CompetitorObservation `json:"competitors"`
	Explanation      string                  `json:"explanation"`
	Warning          string                  `json:"warning,omitempty"`
	Strategy         Strategy                `json:"strategy"`
}

// Float64Ptr is a small helper for optional sales volumes.
func Float64Ptr(v float64) *float64 { return &v }
