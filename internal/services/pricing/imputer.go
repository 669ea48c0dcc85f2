package pricing

import (
	"math"

	"PriceWise/internal/domain/models"
)

const (
	// baselineSales is the monthly volume assumed at baselinePrice when nothing is known.
	baselineSales = 50.0
	baselinePrice = 100.0
	minBaseline   = 1.0
	minScaled     = 5.0
)

// ImputeSales returns a copy of obs where every observation without a usable sales volume
// gets an estimate. Known volumes scale inversely with price around the observed averages;
// with no known volumes a fixed decay anchored at $100 -> 50 sales is used.
// A zero volume counts as unknown.
func ImputeSales(obs []models.CompetitorObservation) []models.CompetitorObservation {
	var sumSales, sumPrice float64
	known := 0
	for _, o := range obs {
		if o.HasSales() {
			sumSales += o.Sales()
			sumPrice += o.Price
			known++
		}
	}

	out := make([]models.CompetitorObservation, len(obs))
	for i, o := range obs {
		if o.HasSales() {
			out[i] = o
			continue
		}
		var est float64
		if known == 0 {
			est = math.Max(minBaseline, roundUnits(baselineSales*(baselinePrice/o.Price)))
		} else {
			avgSales := sumSales / float64(known)
			avgPrice := sumPrice / float64(known)
			est = math.Max(minScaled, roundUnits(avgSales*(avgPrice/o.Price)))
		}
		o.SalesVolume = models.Float64Ptr(est)
		out[i] = o
	}
	return out
}
