// Package competitors fetches competitor listings from marketplace APIs and merges them into
// one observation set per market.
package competitors

import (
	"math"
	"strconv"
	"strings"

	xhttp "PriceWise/pkg/http"
)

const defaultLimit = 50

// Option configures a marketplace source.
type Option func(*sourceConfig)

type sourceConfig struct {
	baseURL string
	client  *xhttp.Client
	limit   int
}

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *sourceConfig) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithClient sets the HTTP client.
func WithClient(client *xhttp.Client) Option {
	return func(c *sourceConfig) {
		c.client = client
	}
}

// WithLimit caps listings per request.
func WithLimit(n int) Option {
	return func(c *sourceConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

func newSourceConfig(baseURL string, opts []Option) sourceConfig {
	cfg := sourceConfig{baseURL: baseURL, limit: defaultLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.client == nil {
		cfg.client = xhttp.NewClient()
	}
	return cfg
}

// flexInt decodes integers that APIs send either as numbers or as strings. Values that do
// not parse, like "1.2k", decode as 0 so one odd listing does not fail the response.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// roundInt rounds half up.
func roundInt(v float64) float64 {
	return math.Floor(v + 0.5)
}
