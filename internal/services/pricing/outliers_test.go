package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PriceWise/internal/domain/models"
)

func prices(list []models.CompetitorObservation) []float64 {
	out := make([]float64, len(list))
	for i, o := range list {
		out[i] = o.Price
	}
	return out
}

func TestRemoveOutliers(t *testing.T) {
	tests := []struct {
		name  string
		input []float64
		want  []float64
	}{
		{"small sample untouched", []float64{1, 50, 1000}, []float64{1, 50, 1000}},
		{"high outlier dropped, order kept", []float64{100, 12, 10, 13, 11}, []float64{12, 10, 13, 11}},
		{"low outlier dropped", []float64{50, 52, 51, 53, 1}, []float64{50, 52, 51, 53}},
		{"tight cluster kept", []float64{25, 30, 35, 40, 45}, []float64{25, 30, 35, 40, 45}},
		{"lower bound is inclusive", []float64{5, 20, 25, 30}, []float64{5, 20, 25, 30}},
		{"just below lower bound", []float64{4.9, 20, 25, 30}, []float64{20, 25, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]models.CompetitorObservation, len(tt.input))
			for i, p := range tt.input {
				in[i] = obs(p, nil, models.ConfidenceLow)
			}
			assert.Equal(t, tt.want, prices(RemoveOutliers(in)))
		})
	}
}

func TestRemoveOutliers_IdenticalPrices(t *testing.T) {
	in := []models.CompetitorObservation{
		obs(20, nil, models.ConfidenceLow),
		obs(20, nil, models.ConfidenceLow),
		obs(20, nil, models.ConfidenceLow),
		obs(20, nil, models.ConfidenceLow),
	}
	assert.Len(t, RemoveOutliers(in), 4)
}
