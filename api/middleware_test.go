package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bugscan/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	for _, h := range securityHeaders {
		assert.Equal(t, h[1], rec.Header().Get(h[0]), h[0])
	}
}

func TestRequestLogging_IncludesJobID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	logging.SetOutput(&logs)
	t.Cleanup(func() { logging.SetOutput(io.Discard) })
	router := NewRouter(newMemStore(), nil, testConfig())

	rec := doRequest(router, http.MethodPost, "/api/v1/scans", CreateScanRequest{Hosts: []string{"a"}, Mode: "ping"}, testKey)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted ScanAcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	unknown := uuid.NewString()
	doRequest(router, http.MethodGet, "/api/v1/scans/"+unknown, nil, testKey)

	var entries []map[string]any
	lines := bufio.NewScanner(&logs)
	for lines.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines.Bytes(), &entry), lines.Text())
		if entry["msg"] == "request completed" {
			entries = append(entries, entry)
		}
	}
	require.Len(t, entries, 2)

	assert.Equal(t, accepted.ID, entries[0]["job_id"])
	assert.Equal(t, "/api/v1/scans", entries[0]["route"])
	assert.Equal(t, "INFO", entries[0]["level"])

	assert.Equal(t, unknown, entries[1]["job_id"])
	assert.Equal(t, "/api/v1/scans/:id", entries[1]["route"])
	assert.Equal(t, "WARN", entries[1]["level"])
	assert.EqualValues(t, http.StatusNotFound, entries[1]["status_code"])
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logging.SetOutput(io.Discard)
	client, mr := newRedis(t)

	cfg := testConfig()
	cfg.RateLimit = 2
	cfg.RateWindow = 30 * time.Second
	router := NewRouter(newMemStore(), client, cfg)
	path := "/api/v1/scans/" + uuid.NewString()

	for i, remaining := range []string{"1", "0"} {
		rec := doRequest(router, http.MethodGet, path, nil, testKey)
		assert.Equal(t, http.StatusNotFound, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, rec.Header().Get("X-RateLimit-Remaining"))
		assert.Empty(t, rec.Header().Get("Retry-After"))
	}

	rec := doRequest(router, http.MethodGet, path, nil, testKey)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	key := "bugscan:ratelimit:192.0.2.1"
	assert.Equal(t, 30*time.Second, mr.TTL(key), "window must not be extended by later hits")
	count, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "3", count)

	mr.FastForward(31 * time.Second)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodGet, path, nil, testKey).Code, "new window")
}

func TestRateLimit_RedisFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logging.SetOutput(io.Discard)
	client, mr := newRedis(t)

	cfg := testConfig()
	cfg.RateLimit = 5
	router := NewRouter(newMemStore(), client, cfg)

	mr.SetError("LOADING redis is loading the dataset in memory")
	rec := doRequest(router, http.MethodGet, "/api/v1/scans/"+uuid.NewString(), nil, testKey)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logging.SetOutput(io.Discard)
	client, mr := newRedis(t)

	router := NewRouter(newMemStore(), client, testConfig())
	for i := 0; i < 3; i++ {
		rec := doRequest(router, http.MethodGet, "/api/v1/scans/"+uuid.NewString(), nil, testKey)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Empty(t, mr.Keys())
}
