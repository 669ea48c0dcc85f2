package pricing

import "PriceWise/internal/domain/models"

const (
	highR2     = 0.7
	mediumR2   = 0.3
	minSupport = 5
)

// ClassifyConfidence grades a fitted curve. Evaluated in priority order: high, medium, low.
func ClassifyConfidence(rSquared float64, highCount, totalCount int) models.Confidence {
	if rSquared > highR2 && highCount >= minSupport {
		return models.ConfidenceHigh
	}
	if rSquared > mediumR2 && totalCount >= minSupport {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}
