package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"PriceWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingsJSON = `[
  {"source":"etsy","title":"a","price":20,"salesVolume":80,"confidence":"high"},
  {"source":"etsy","title":"b","price":25,"salesVolume":70,"confidence":"high"},
  {"source":"etsy","title":"c","price":30,"salesVolume":60,"confidence":"high"},
  {"source":"etsy","title":"d","price":35,"salesVolume":50,"confidence":"high"},
  {"source":"etsy","title":"e","price":40,"salesVolume":40,"confidence":"high"}
]`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	path := writeFile(t, listingsJSON)

	out, err := run(t, "analyze", "--unit-cost", "10", "--variable-costs", "2", "--competitors", path, "--scenarios", "5")
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, models.StrategyDemandCurve, got.Analysis.Strategy)
	assert.Len(t, got.Analysis.Scenarios, 5)
	assert.Equal(t, models.ConfidenceHigh, got.Analysis.Confidence)
	assert.Empty(t, got.FallbackReason)
}

func TestAnalyzeAcceptsWrappedFileAndFallsBack(t *testing.T) {
	path := writeFile(t, `{"competitors":[{"title":"a","price":20,"confidence":"low"}],"count":1}`)

	out, err := run(t, "analyze", "--unit-cost", "4", "--competitors", path, "--compact")
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, models.StrategyCostPlus, got.Analysis.Strategy)
	assert.Equal(t, 10.0, got.Analysis.RecommendedPrice)
	assert.Equal(t, "too_few_competitors", got.FallbackReason)
}

func TestAnalyzeErrors(t *testing.T) {
	path := writeFile(t, listingsJSON)

	_, err := run(t, "analyze", "--competitors", path)
	assert.Error(t, err, "unit cost is required")

	_, err = run(t, "analyze", "--unit-cost=-1", "--competitors", path)
	assert.ErrorContains(t, err, "unitCost")

	_, err = run(t, "analyze", "--unit-cost", "1", "--competitors", path, "--scenarios", "1")
	assert.ErrorContains(t, err, "scenarios")

	_, err = run(t, "analyze", "--unit-cost", "1", "--competitors", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "analyze", "--unit-cost", "1", "--competitors", writeFile(t, `{"nope":true}`))
	assert.ErrorContains(t, err, "no competitors array")
}

func TestFit(t *testing.T) {
	out, err := run(t, "fit", "--competitors", writeFile(t, listingsJSON))
	require.NoError(t, err)

	var got fitOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Curve)
	assert.InDelta(t, -2.0, got.Curve.Slope, 1e-9)
	assert.InDelta(t, 120.0, got.Curve.Intercept, 1e-9)
	assert.InDelta(t, 1.0, got.Curve.RSquared, 1e-9)
	assert.Equal(t, 5, got.Competitors)
}

func TestFitReportsUnfittableMarket(t *testing.T) {
	out, err := run(t, "fit", "--competitors", writeFile(t, `[{"title":"a","price":20,"confidence":"low"}]`))
	require.NoError(t, err)

	var got fitOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got.Curve)
	assert.Contains(t, got.Error, "insufficient")
}
