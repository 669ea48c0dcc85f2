package pricing

import "PriceWise/internal/domain/models"

func obs(price float64, sales *float64, c models.Confidence) models.CompetitorObservation {
	return models.CompetitorObservation{
		Source:      models.SourceFeed,
		Title:       "listing",
		Price:       price,
		SalesVolume: sales,
		Confidence:  c,
	}
}

func sold(v float64) *float64 { return models.Float64Ptr(v) }

func product(unitCost, variableCosts float64) models.ProductCostInput {
	return models.ProductCostInput{
		Name:          "Ceramic mug",
		Keyword:       "ceramic mug",
		Category:      "kitchen",
		UnitCost:      unitCost,
		VariableCosts: variableCosts,
	}
}

// linearMarket returns high-confidence observations lying exactly on sales = 150 - 2*price.
func linearMarket() []models.CompetitorObservation {
	return []models.CompetitorObservation{
		obs(25, sold(100), models.ConfidenceHigh),
		obs(30, sold(90), models.ConfidenceHigh),
		obs(35, sold(80), models.ConfidenceHigh),
		obs(40, sold(70), models.ConfidenceHigh),
		obs(45, sold(60), models.ConfidenceHigh),
	}
}
