package competitors

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"PriceWise/internal/domain/models"
	xhttp "PriceWise/pkg/http"
)

const (
	ebayBaseURL = "https://api.ebay.com"
	ebayScope   = "https://api.ebay.com/oauth/api_scope"
)

// ErrMissingCredentials is returned when a source is used without its API credentials.
var ErrMissingCredentials = errors.New("credentials not configured")

// Ebay searches the eBay Browse API. It is the only source with real sold quantities.
type Ebay struct {
	cfg          sourceConfig
	clientID     string
	clientSecret string
	now          func() time.Time

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewEbay creates an eBay source using OAuth client credentials.
func NewEbay(clientID, clientSecret string, opts ...Option) *Ebay {
	return &Ebay{
		cfg:          newSourceConfig(ebayBaseURL, opts),
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

func (e *Ebay) Name() string { return string(models.SourceEbay) }

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// appToken returns a cached application token, refreshing it a minute before expiry.
func (e *Ebay) appToken(ctx context.Context) (string, error) {
	if e.clientID == "" || e.clientSecret == "" {
		return "", fmt.Errorf("ebay: %w", ErrMissingCredentials)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token != "" && e.now().Before(e.tokenExp) {
		return e.token, nil
	}

	var resp ebayTokenResponse
	err := e.cfg.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:    xhttp.MethodPost,
		URL:       e.cfg.baseURL + "/identity/v1/oauth2/token",
		Body:      url.Values{"grant_type": {"client_credentials"}, "scope": {ebayScope}},
		BasicAuth: &xhttp.BasicAuth{Username: e.clientID, Password: e.clientSecret},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("ebay token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("ebay token: empty access token")
	}

	e.token = resp.AccessToken
	e.tokenExp = e.now().Add(time.Duration(resp.ExpiresIn)*time.Second - time.Minute)
	return e.token, nil
}

type ebaySearchResponse struct {
	ItemSummaries []struct {
		Title string `json:"title"`
		Price *struct {
			Value string `json:"value"`
		} `json:"price"`
		ItemWebURL   string  `json:"itemWebUrl"`
		QuantitySold flexInt `json:"quantitySold"`
		UnitsSold    flexInt `json:"unitsSold"`
	} `json:"itemSummaries"`
}

func (e *Ebay) Fetch(ctx context.Context, q models.CompetitorQuery) ([]models.CompetitorObservation, error) {
	token, err := e.appToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp ebaySearchResponse
	err = e.cfg.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    e.cfg.baseURL + "/buy/browse/v1/item_summary/search",
		QueryParams: map[string][]string{
			"q":      {q.Keyword},
			"limit":  {strconv.Itoa(e.cfg.limit)},
			"filter": {"conditionIds:{1000|1500}"},
		},
		Headers: map[string]string{
			"Authorization":           "Bearer " + token,
			"X-EBAY-C-MARKETPLACE-ID": "EBAY_US",
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ebay search: %w", err)
	}

	out := make([]models.CompetitorObservation, 0, len(resp.ItemSummaries))
	for _, it := range resp.ItemSummaries {
		if it.Price == nil || it.Price.Value == "" {
			continue
		}
		price, err := strconv.ParseFloat(it.Price.Value, 64)
		if err != nil {
			continue
		}
		sold := int(it.QuantitySold)
		if sold == 0 {
			sold = int(it.UnitsSold)
		}

		o := models.CompetitorObservation{
			Source:     models.SourceEbay,
			Title:      it.Title,
			Price:      price,
			URL:        it.ItemWebURL,
			Confidence: models.ConfidenceMedium,
		}
		if sold > 0 {
			o.SalesVolume = models.Float64Ptr(float64(sold))
			o.Confidence = models.ConfidenceHigh
		}
		out = append(out, o)
	}
	return out, nil
}
