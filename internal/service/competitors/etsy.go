package competitors

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"PriceWise/internal/domain/models"
	xhttp "PriceWise/pkg/http"
)

const etsyBaseURL = "https://openapi.etsy.com/v3/application"

// Etsy searches active Etsy listings. Sales are estimated from favourites.
type Etsy struct {
	cfg    sourceConfig
	apiKey string
}

// NewEtsy creates an Etsy source.
func NewEtsy(apiKey string, opts ...Option) *Etsy {
	return &Etsy{cfg: newSourceConfig(etsyBaseURL, opts), apiKey: apiKey}
}

func (e *Etsy) Name() string { return string(models.SourceEtsy) }

type etsyResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Price *struct {
			Amount  float64 `json:"amount"`
			Divisor float64 `json:"divisor"`
		} `json:"price"`
		NumFavorers int `json:"num_favorers"`
	} `json:"results"`
}

func (e *Etsy) Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error) {
	var resp etsyResponse
	err := e.cfg.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    e.cfg.baseURL + "/listings/active",
		QueryParams: map[string][]string{
			"keywords": {q.Keyword},
			"limit":    {strconv.Itoa(e.cfg.limit)},
		},
		Headers: map[string]string{"x-api-key": e.apiKey},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("etsy search: %w", err)
	}

	out := make([]models.CompetitorObservation, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Title == "" || r.Price == nil || r.Price.Divisor == 0 {
			continue
		}
		out = append(out, models.CompetitorObservation{
			Source:      models.SourceEtsy,
			Title:       r.Title,
			Price:       r.Price.Amount / r.Price.Divisor,
			SalesVolume: models.Float64Ptr(salesFromFavorites(r.NumFavorers)),
			URL:         r.URL,
			Confidence:  favoritesConfidence(r.NumFavorers),
		})
	}
	return out, nil
}

// salesFromFavorites assumes about 3% of favourited items sell per month.
func salesFromFavorites(favorites int) float64 {
	return math.Max(1, roundInt(float64(favorites)*0.03))
}

func favoritesConfidence(favorites int) models.Confidence {
	switch {
	case favorites > 50:
		return models.ConfidenceHigh
	case favorites > 20:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
