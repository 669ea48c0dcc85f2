package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestBuildOptionsNative(t *testing.T) {
	opts := buildOptions(ClientConfig{
		Host:        "ch.local",
		Port:        9000,
		Database:    "pricewise",
		User:        "svc",
		Password:    "secret",
		DialTimeout: 2 * time.Second,
		MaxExecTime: 30 * time.Second,
	})

	assert.Equal(t, []string{"ch.local:9000"}, opts.Addr)
	assert.Equal(t, "pricewise", opts.Auth.Database)
	assert.Equal(t, "svc", opts.Auth.Username)
	assert.Equal(t, ch.Native, opts.Protocol)
	assert.Equal(t, ch.CompressionLZ4, opts.Compression.Method)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.NotContains(t, opts.Settings, "async_insert")
}

func TestBuildOptionsHTTPAsync(t *testing.T) {
	opts := buildOptions(ClientConfig{
		Host:         "ch.local",
		Port:         8123,
		UseHTTP:      true,
		AsyncInsert:  true,
		WaitForAsync: true,
	})

	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Equal(t, ch.CompressionGZIP, opts.Compression.Method)
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
