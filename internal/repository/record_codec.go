package repository

import (
	"encoding/json"
	"fmt"

	"PriceWise/internal/domain/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// listLimit bounds a filter limit.
func listLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	default:
		return n
	}
}

// encodeRecord splits r into the JSON blobs stored alongside the indexed columns.
func encodeRecord(r *models.AnalysisRecord) (product, analysis []byte, err error) {
	if product, err = json.Marshal(r.Product); err != nil {
		return nil, nil, fmt.Errorf("marshal product: %w", err)
	}
	if analysis, err = json.Marshal(r.Analysis); err != nil {
		return nil, nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return product, analysis, nil
}

func decodeRecord(r *models.AnalysisRecord, product, analysis []byte) error {
	if err := json.Unmarshal(product, &r.Product); err != nil {
		return fmt.Errorf("unmarshal product: %w", err)
	}
	if err := json.Unmarshal(analysis, &r.Analysis); err != nil {
		return fmt.Errorf("unmarshal analysis: %w", err)
	}
	return nil
}
