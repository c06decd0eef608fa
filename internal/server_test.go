package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2beens/rebuildweb/internal/backend/backendtest"
	"github.com/2beens/rebuildweb/internal/config"
	"github.com/2beens/rebuildweb/internal/web"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, backendOrigin string) *Server {
	t.Helper()

	// nothing listens on the redis port, redis is reported as unavailable
	server, err := NewServer(context.Background(), NewServerParams{
		Config: &config.Config{
			Environment:                "development",
			Host:                       "127.0.0.1",
			Port:                       9000,
			BackendOrigin:              backendOrigin,
			BackendSchema:              "v2",
			BackendTimeoutSec:          2,
			Timezone:                   "UTC",
			RedisHost:                  "127.0.0.1",
			RedisPort:                  "1",
			AuthRateLimitAllowedPerMin: 15,
		},
		VersionInfo: "test-version",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, server.redisClient.Close())
	})

	return server
}

func TestCsrfKeyFrom(t *testing.T) {
	key, err := csrfKeyFrom(strings.Repeat("k", 40), true)
	require.NoError(t, err)
	assert.Len(t, key, csrfKeyLength)

	_, err = csrfKeyFrom("short", false)
	assert.Error(t, err)

	_, err = csrfKeyFrom("", true)
	assert.EqualError(t, err, "csrf key not set")

	first, err := csrfKeyFrom("", false)
	require.NoError(t, err)
	second, err := csrfKeyFrom("", false)
	require.NoError(t, err)
	assert.Len(t, first, csrfKeyLength)
	assert.NotEqual(t, first, second)
}

func TestNewServer_InvalidBackendOrigin(t *testing.T) {
	_, err := NewServer(context.Background(), NewServerParams{
		Config: &config.Config{
			Environment:   "development",
			Port:          9000,
			BackendOrigin: "ftp://rebuild.example",
			RedisHost:     "127.0.0.1",
			RedisPort:     "1",
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve backend base url")
}

func TestServer_routerSetup(t *testing.T) {
	fakeBackend := backendtest.NewServer()
	defer fakeBackend.Close()
	fakeBackend.AddUser("ana", "ana@rebuild.example", "secret")
	fakeBackend.AddExercise("ana", "Bench press", "chest", "2024-03-05", false)

	server := newTestServer(t, fakeBackend.URL)
	router, err := server.routerSetup()
	require.NoError(t, err)

	ts := httptest.NewServer(router)
	defer ts.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var status map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		assert.Equal(t, "unavailable", status["redis"])
		assert.Equal(t, "ok", status["backend"])
	})

	t.Run("home with a backend session", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		require.NoError(t, err)
		req.AddCookie(fakeBackend.Login("ana"))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "Hello, ana!")
		assert.Contains(t, string(body), "Bench press")
		assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

		var csrfCookieSet bool
		for _, c := range resp.Cookies() {
			csrfCookieSet = csrfCookieSet || c.Name == web.CSRFCookieName
		}
		assert.True(t, csrfCookieSet)
	})

	t.Run("form post without csrf token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/exercises", strings.NewReader("name=Squat&group=legs&date=2024-03-06"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(fakeBackend.Login("ana"))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Len(t, fakeBackend.Exercises("ana"), 1)
	})

	assert.Positive(t, testutil.CollectAndCount(server.metricsManager.CounterRequests))
	assert.Positive(t, testutil.CollectAndCount(server.metricsManager.CounterBackendCalls))
}

func TestServer_connStateMetrics(t *testing.T) {
	server := newTestServer(t, "http://localhost:8000")

	server.connStateMetrics(nil, http.StateNew)
	server.connStateMetrics(nil, http.StateNew)
	server.connStateMetrics(nil, http.StateActive)
	assert.Equal(t, float64(2), testutil.ToFloat64(server.metricsManager.GaugeRequests))

	server.connStateMetrics(nil, http.StateClosed)
	assert.Equal(t, float64(1), testutil.ToFloat64(server.metricsManager.GaugeRequests))
}
