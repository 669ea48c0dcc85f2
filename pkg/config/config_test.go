package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\nserver:\n  port: 9090\n"))

	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 12, c.Pricing.ScenarioCount)
	assert.Equal(t, StorageMemory, c.Storage.Backend)
	assert.Equal(t, 24*time.Hour, c.Cache.TTL)
	assert.Equal(t, "competitor.listings", c.Kafka.Topics.Competitors)
	assert.Equal(t, 50, c.Sources.MaxResults)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad backend":       "storage:\n  backend: mongo\n",
		"postgres no dsn":   "storage:\n  backend: postgres\n",
		"kafka no brokers":  "kafka:\n  enabled: true\n",
		"queue needs redis": "queue:\n  enabled: true\n",
		"too few scenarios": "pricing:\n  scenario_count: 1\n",
		"malformed yaml":    "server: [\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PRICEWISE_STORAGE_BACKEND", "postgres")
	t.Setenv("PRICEWISE_POSTGRES_DSN", "postgres://localhost/pricewise")
	t.Setenv("PRICEWISE_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRICEWISE_ETSY_API_KEY", "etsy-key")
	t.Setenv("PRICEWISE_PORT", "7000")

	c := Default()
	require.NoError(t, c.ApplyEnv())

	assert.Equal(t, StoragePostgres, c.Storage.Backend)
	assert.Equal(t, "postgres://localhost/pricewise", c.Postgres.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "etsy-key", c.Sources.Etsy.APIKey)
	assert.Equal(t, 7000, c.Server.Port)
	assert.NoError(t, c.Validate())
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	assert.True(t, c.Metrics.Enabled)
	assert.NoError(t, c.Validate())
}
