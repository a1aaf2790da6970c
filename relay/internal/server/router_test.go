package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHealth struct {
	connected bool
}

func (s *stubHealth) IsConnected() bool { return s.connected }

func get(t *testing.T, handler http.Handler, path string) (*http.Response, string) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(nil)

	resp, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	resp, _ = get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyEndpoint(t *testing.T) {
	health := &stubHealth{connected: false}
	router := NewRouter(health)

	resp, _ := get(t, router, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	health.connected = true
	resp, _ = get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(nil)

	resp, body := get(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestRequestIDHeader(t *testing.T) {
	router := NewRouter(nil)

	resp, _ := get(t, router, "/health")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
