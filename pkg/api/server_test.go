package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/tscap/pkg/logging"
	"github.com/ssargent/tscap/pkg/storage"
)

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), logging.Discard())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	err := Run(context.Background(), "127.0.0.1:-1", http.NotFoundHandler(), logging.Discard())
	assert.Error(t, err)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	env := setupTestServer(t)
	router := NewRouter(env.server, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// without a handler the route is absent
	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_WithoutMetrics(t *testing.T) {
	store, err := storage.Open(storage.Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	server := NewServer(store, ServerConfig{APIKey: testAPIKey}, nil, nil)
	router := NewRouter(server, nil)

	req := httptest.NewRequest("GET", "/api/v1/timestamps/pack?ts=42", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/timestamps/pack?ts=abc", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_refreshStoreStats(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.store.Append(100, []byte("abcd"))
	require.NoError(t, err)
	_, err = env.store.Append(200, []byte("ef"))
	require.NoError(t, err)

	env.server.refreshStoreStats(context.Background())

	assert.Equal(t, float64(2), testutil.ToFloat64(env.metrics.storePackets))
	assert.Equal(t, float64(6), testutil.ToFloat64(env.metrics.storePayloadBytes))
}

func TestServer_startMetricsUpdaterStops(t *testing.T) {
	env := setupTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.server.startMetricsUpdater(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("metrics updater did not stop")
	}
}
