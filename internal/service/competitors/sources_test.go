package competitors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"PriceWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var candleQuery = models.CompetitorQuery{Keyword: "soy candle", Category: "home"}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestEtsyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/active", r.URL.Path)
		assert.Equal(t, "soy candle", r.URL.Query().Get("keywords"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "etsy-key", r.Header.Get("x-api-key"))
		writeJSON(w, map[string]interface{}{
			"results": []map[string]interface{}{
				{"title": "Lavender soy candle", "url": "https://etsy/1", "price": map[string]float64{"amount": 2450, "divisor": 100}, "num_favorers": 120},
				{"title": "Vanilla candle", "price": map[string]float64{"amount": 1800, "divisor": 100}, "num_favorers": 30},
				{"title": "Tiny candle", "price": map[string]float64{"amount": 900, "divisor": 100}},
				{"title": "No price"},
			},
		})
	}))
	defer srv.Close()

	src := NewEtsy("etsy-key", WithBaseURL(srv.URL), WithLimit(10))
	got, err := src.Fetch(context.Background(), candleQuery)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, models.SourceEtsy, got[0].Source)
	assert.InDelta(t, 24.5, got[0].Price, 1e-9)
	assert.Equal(t, 4.0, *got[0].SalesVolume)
	assert.Equal(t, models.ConfidenceHigh, got[0].Confidence)

	assert.Equal(t, 1.0, *got[1].SalesVolume)
	assert.Equal(t, models.ConfidenceMedium, got[1].Confidence)

	assert.Equal(t, 1.0, *got[2].SalesVolume)
	assert.Equal(t, models.ConfidenceLow, got[2].Confidence)
}

func TestEtsyFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewEtsy("k", WithBaseURL(srv.URL)).Fetch(context.Background(), candleQuery)
	assert.Error(t, err)
}

func TestEbayFetchUsesCachedToken(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/v1/oauth2/token":
			atomic.AddInt32(&tokenCalls, 1)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "id", user)
			assert.Equal(t, "secret", pass)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			writeJSON(w, map[string]interface{}{"access_token": "tok", "expires_in": 7200})
		case "/buy/browse/v1/item_summary/search":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
			writeJSON(w, map[string]interface{}{
				"itemSummaries": []map[string]interface{}{
					{"title": "Soy candle jar", "price": map[string]string{"value": "19.99"}, "itemWebUrl": "https://ebay/1", "quantitySold": "14"},
					{"title": "Beeswax candle", "price": map[string]string{"value": "25.00"}},
					{"title": "Broken price", "price": map[string]string{"value": "n/a"}},
					{"title": "No price"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewEbay("id", "secret", WithBaseURL(srv.URL))
	for i := 0; i < 2; i++ {
		got, err := src.Fetch(context.Background(), candleQuery)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, 14.0, *got[0].SalesVolume)
		assert.Equal(t, models.ConfidenceHigh, got[0].Confidence)
		assert.Nil(t, got[1].SalesVolume)
		assert.Equal(t, models.ConfidenceMedium, got[1].Confidence)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestEbayMissingCredentials(t *testing.T) {
	_, err := NewEbay("", "").Fetch(context.Background(), candleQuery)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestAmazonFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "soy candle", r.URL.Query().Get("query"))
		assert.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
		writeJSON(w, map[string]interface{}{
			"data": map[string]interface{}{
				"products": []map[string]interface{}{
					{"product_title": "Candle A", "product_price": "$1,024.50", "product_num_ratings": 360},
					{"product_title": "Candle B", "product_price": "$12.00", "product_num_ratings": "50"},
					{"product_title": "Candle C", "product_price": "$9.99"},
					{"product_title": "Candle D", "product_price": "$5.00", "product_num_ratings": 1},
				},
			},
		})
	}))
	defer srv.Close()

	src := NewAmazon("rapid-key", "", WithBaseURL(srv.URL), WithLimit(3))
	got, err := src.Fetch(context.Background(), candleQuery)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 1024.5, got[0].Price)
	assert.Equal(t, 1000.0, *got[0].SalesVolume)
	assert.Equal(t, models.ConfidenceHigh, got[0].Confidence)

	// 50 / 0.015 / 24 = 138.9
	assert.Equal(t, 139.0, *got[1].SalesVolume)
	assert.Equal(t, models.ConfidenceMedium, got[1].Confidence)

	assert.Equal(t, 0.0, *got[2].SalesVolume)
	assert.Equal(t, models.ConfidenceLow, got[2].Confidence)
}

func TestSalesFromReviewsFloorsAtOne(t *testing.T) {
	assert.Equal(t, 0.0, salesFromReviews(0))
	assert.Equal(t, 3.0, salesFromReviews(1))
	assert.Equal(t, 1.0, salesFromFavorites(0))
	assert.Equal(t, 2.0, salesFromFavorites(50))
}

func TestAmazonCapsListings(t *testing.T) {
	products := make([]map[string]interface{}, 40)
	for i := range products {
		products[i] = map[string]interface{}{"product_title": "Candle", "product_price": "$10.00", "product_num_ratings": 30}
	}
	// one malformed count must not fail the response
	products[0]["product_num_ratings"] = "1.2k"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]interface{}{"data": map[string]interface{}{"products": products}})
	}))
	defer srv.Close()

	got, err := NewAmazon("rapid-key", "", WithBaseURL(srv.URL)).Fetch(context.Background(), candleQuery)
	require.NoError(t, err)
	assert.Len(t, got, amazonMaxResults)
	assert.Equal(t, 0.0, *got[0].SalesVolume)
	assert.Equal(t, models.ConfidenceLow, got[0].Confidence)

	got, err = NewAmazon("rapid-key", "", WithBaseURL(srv.URL), WithLimit(50)).Fetch(context.Background(), candleQuery)
	require.NoError(t, err)
	assert.Len(t, got, amazonMaxResults)
}

func TestEtsyDefaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		writeJSON(w, map[string]interface{}{"results": []interface{}{}})
	}))
	defer srv.Close()

	_, err := NewEtsy("etsy-key", WithBaseURL(srv.URL)).Fetch(context.Background(), candleQuery)
	require.NoError(t, err)
}

func TestFlexIntDecoding(t *testing.T) {
	tests := []struct {
		in   string
		want flexInt
	}{
		{`42`, 42},
		{`"42"`, 42},
		{`"1,250"`, 1250},
		{`null`, 0},
		{`""`, 0},
		{`"1.2k"`, 0},
		{`"n/a"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got flexInt
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
