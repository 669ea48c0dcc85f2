package pricing

import (
	"math"

	"PriceWise/internal/domain/models"
)

// degenerateEpsilon bounds the weighted price variance below which no line is fit.
const degenerateEpsilon = 1e-10

// Weight maps an observation confidence tag to its regression weight.
func Weight(c models.Confidence) float64 {
	switch c {
	case models.ConfidenceHigh:
		return 3.0
	case models.ConfidenceMedium:
		return 1.5
	default:
		return 1.0
	}
}

// Fit is the result of a weighted least squares line fit.
type Fit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// WeightedLinearRegression fits y = slope*x + intercept minimising the weighted squared error.
// x, y and w must be parallel; fewer than 2 points fails with ErrInsufficientData and a
// numerically zero price variance with ErrDegenerateInput.
func WeightedLinearRegression(x, y, w []float64) (Fit, error) {
	n := len(x)
	if n < 2 || len(y) != n || len(w) != n {
		return Fit{}, ErrInsufficientData
	}

	var sumW, sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < n; i++ {
		sumW += w[i]
		sumX += w[i] * x[i]
		sumY += w[i] * y[i]
		sumXY += w[i] * x[i] * y[i]
		sumX2 += w[i] * x[i] * x[i]
	}
	if sumW <= 0 {
		return Fit{}, ErrInsufficientData
	}

	meanX := sumX / sumW
	meanY := sumY / sumW

	num := sumXY - sumW*meanX*meanY
	den := sumX2 - sumW*meanX*meanX
	if math.Abs(den) < degenerateEpsilon {
		return Fit{}, ErrDegenerateInput
	}

	slope := num / den
	intercept := meanY - slope*meanX

	var ssTotal, ssResidual float64
	for i := 0; i < n; i++ {
		predicted := slope*x[i] + intercept
		ssResidual += w[i] * (y[i] - predicted) * (y[i] - predicted)
		ssTotal += w[i] * (y[i] - meanY) * (y[i] - meanY)
	}

	r2 := 0.0
	if ssTotal > 0 {
		r2 = clamp01(1 - ssResidual/ssTotal)
	}

	return Fit{Slope: slope, Intercept: intercept, RSquared: r2}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
