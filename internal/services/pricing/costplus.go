package pricing

import "PriceWise/internal/domain/models"

const (
	costPlusMultiplier = 2.5
	costPlusSales      = 30

	costPlusExplanation = "Using cost-plus pricing model with a 150% markup due to limited competitor data."
	costPlusWarning     = "Limited competitor data found. This recommendation is based on standard markup principles rather than market analysis. Try different keywords for better results."
)

// costPlusLadder is the fixed markup/sales table shown alongside a cost-plus recommendation.
var costPlusLadder = []struct {
	markup float64
	sales  float64
}{
	{2.0, 40},
	{2.25, 35},
	{2.5, 30},
	{2.75, 25},
	{3.0, 20},
}

// CostPlus prices the product at a fixed multiple of its total cost. It needs no market data
// and always succeeds. Ladder profits are left unrounded.
func CostPlus(product models.ProductCostInput) models.PricingAnalysis {
	totalCost := product.TotalCost()
	recommended := round2(totalCost * costPlusMultiplier)

	scenarios := make([]models.PriceScenario, 0, len(costPlusLadder))
	for _, step := range costPlusLadder {
		price := totalCost * step.markup
		scenarios = append(scenarios, models.PriceScenario{
			Price:          price,
			ExpectedSales:  step.sales,
			ExpectedProfit: (price - totalCost) * step.sales,
		})
	}

	return models.PricingAnalysis{
		RecommendedPrice: recommended,
		PredictedSales:   costPlusSales,
		PredictedProfit:  profit(recommended, totalCost, costPlusSales),
		Confidence:       models.ConfidenceLow,
		RSquared:         0,
		CompetitorCount:  0,
		Scenarios:        scenarios,
		Competitors:      []models.CompetitorObservation{},
		Explanation:      costPlusExplanation,
		Warning:          costPlusWarning,
		Strategy:         models.StrategyCostPlus,
	}
}
