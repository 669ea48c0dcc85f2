package pricing

import (
	"math"

	"PriceWise/internal/domain/models"
)

// DefaultScenarioCount is the number of candidate prices evaluated on a fitted curve.
const DefaultScenarioCount = 12

// GenerateScenarios evaluates the curve at numScenarios evenly spaced prices covering
// [minPrice, maxPrice] inclusive. The result is ascending by price by construction.
func GenerateScenarios(minPrice, maxPrice, totalCost, slope, intercept float64, numScenarios int) []models.PriceScenario {
	if numScenarios < 2 {
		numScenarios = 2
	}
	step := (maxPrice - minPrice) / float64(numScenarios-1)

	scenarios := make([]models.PriceScenario, 0, numScenarios)
	for i := 0; i < numScenarios; i++ {
		price := round2(minPrice + float64(i)*step)
		sales := math.Max(0, roundUnits(slope*price+intercept))
		scenarios = append(scenarios, models.PriceScenario{
			Price:          price,
			ExpectedSales:  sales,
			ExpectedProfit: profit(price, totalCost, sales),
		})
	}
	return scenarios
}

// profit is the rounded margin over totalCost across sales units.
func profit(price, totalCost, sales float64) float64 {
	return round2((price - totalCost) * sales)
}

// bestScenario returns the first scenario with the strictly highest expected profit.
func bestScenario(scenarios []models.PriceScenario) models.PriceScenario {
	best := scenarios[0]
	for _, s := range scenarios[1:] {
		if s.ExpectedProfit > best.ExpectedProfit {
			best = s
		}
	}
	return best
}
