package pricing

import (
	"sort"

	"PriceWise/internal/domain/models"
)

// minOutlierSample is the smallest sample the IQR filter runs on; below it quartiles are noise.
const minOutlierSample = 4

// RemoveOutliers drops observations whose price falls outside [Q1-1.5*IQR, Q3+1.5*IQR].
// Quartiles are plain index lookups into the sorted prices, no interpolation.
// The input order of the kept observations is preserved.
func RemoveOutliers(obs []models.CompetitorObservation) []models.CompetitorObservation {
	n := len(obs)
	if n < minOutlierSample {
		return obs
	}

	prices := make([]float64, n)
	for i, o := range obs {
		prices[i] = o.Price
	}
	sort.Float64s(prices)

	q1 := prices[int(float64(n)*0.25)]
	q3 := prices[int(float64(n)*0.75)]
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	out := make([]models.CompetitorObservation, 0, n)
	for _, o := range obs {
		if o.Price >= lower && o.Price <= upper {
			out = append(out, o)
		}
	}
	return out
}
