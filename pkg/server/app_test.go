package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceWise/pkg/config"
	xhttp "PriceWise/pkg/http"
	applogger "PriceWise/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestAppRunStopsOnCancelAndClosesInOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = time.Second

	var order []string
	app := New(cfg, applogger.NewNop(), nil, WithClosers(
		closerFunc(func() error { order = append(order, "publisher"); return nil }),
		nil,
		closerFunc(func() error { order = append(order, "store"); return errors.New("already closed") }),
	))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, []string{"publisher", "store"}, order)
}

func TestAppMetricsOnlyWithRegistry(t *testing.T) {
	cfg := config.Default()

	app := New(cfg, applogger.NewNop(), []xhttp.Handler{})
	rec := httptest.NewRecorder()
	app.HTTP().Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	app = New(cfg, applogger.NewNop(), nil, WithRegistry(prometheus.NewRegistry()))
	rec = httptest.NewRecorder()
	app.HTTP().Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
