package competitors

import (
	"context"
	"fmt"
	"math"

	"PriceWise/internal/domain/models"
	xhttp "PriceWise/pkg/http"
	"PriceWise/pkg/util"
)

const (
	amazonBaseURL = "https://real-time-amazon-data.p.rapidapi.com"
	amazonHost    = "real-time-amazon-data.p.rapidapi.com"

	// reviewRate is the share of buyers who leave a review; sales are spread over two years.
	reviewRate     = 0.015
	lifetimeMonths = 24

	// amazonMaxResults caps Amazon listings below the shared source limit.
	amazonMaxResults = 30
)

// Amazon searches Amazon through a RapidAPI proxy. Sales are estimated from review counts.
type Amazon struct {
	cfg    sourceConfig
	apiKey string
	host   string
}

// NewAmazon creates an Amazon source. An empty host uses the default RapidAPI host.
func NewAmazon(apiKey, host string, opts ...Option) *Amazon {
	if host == "" {
		host = amazonHost
	}
	return &Amazon{cfg: newSourceConfig(amazonBaseURL, opts), apiKey: apiKey, host: host}
}

func (a *Amazon) Name() string { return string(models.SourceAmazon) }

type amazonResponse struct {
	Data *struct {
		Products []struct {
			Title      string  `json:"product_title"`
			Price      string  `json:"product_price"`
			URL        string  `json:"product_url"`
			NumRatings flexInt `json:"product_num_ratings"`
		} `json:"products"`
	} `json:"data"`
}

func (a *Amazon) Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error) {
	var resp amazonResponse
	err := a.cfg.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    a.cfg.baseURL + "/search",
		QueryParams: map[string][]string{
			"query":   {q.Keyword},
			"page":    {"1"},
			"country": {"US"},
		},
		Headers: map[string]string{
			"X-RapidAPI-Key":  a.apiKey,
			"X-RapidAPI-Host": a.host,
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("amazon search: %w", err)
	}
	if resp.Data == nil {
		return []models.CompetitorObservation{}, nil
	}

	limit := min(a.cfg.limit, amazonMaxResults)
	out := make([]models.CompetitorObservation, 0, min(len(resp.Data.Products), limit))
	for _, p := range resp.Data.Products {
		if p.Title == "" || p.Price == "" {
			continue
		}
		if len(out) == limit {
			break
		}
		price, ok := util.ParsePrice(p.Price)
		if !ok {
			continue
		}
		reviews := int(p.NumRatings)
		out = append(out, models.CompetitorObservation{
			Source:      models.SourceAmazon,
			Title:       p.Title,
			Price:       price,
			SalesVolume: models.Float64Ptr(salesFromReviews(reviews)),
			URL:         p.URL,
			Confidence:  reviewsConfidence(reviews),
		})
	}
	return out, nil
}

func salesFromReviews(reviews int) float64 {
	if reviews <= 0 {
		return 0
	}
	monthly := float64(reviews) / reviewRate / lifetimeMonths
	return math.Max(1, roundInt(monthly))
}

func reviewsConfidence(reviews int) models.Confidence {
	switch {
	case reviews > 100:
		return models.ConfidenceHigh
	case reviews > 20:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
