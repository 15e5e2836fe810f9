package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"field-survey-router/internal/config"
	"field-survey-router/internal/database"
	"field-survey-router/internal/routing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.CacheConfig
	}{
		{"file", config.CacheConfig{Backend: config.CacheBackendFile, Path: "routes.json"}},
		{"file with lru", config.CacheConfig{Backend: config.CacheBackendFile, Path: "routes.json", MemorySize: 8}},
		{"sqlite", config.CacheConfig{Backend: config.CacheBackendSQLite, Path: "routes.db"}},
		{"sqlite with lru", config.CacheConfig{Backend: config.CacheBackendSQLite, Path: "routes.db", MemorySize: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Path = filepath.Join(t.TempDir(), cfg.Path)

			store, err := OpenStore(cfg, zap.NewNop())
			require.NoError(t, err)
			defer store.Close()

			if cfg.MemorySize > 0 {
				assert.IsType(t, &database.LRUStore{}, store)
			}

			require.NoError(t, store.Set(ctx, "k", "v"))
			got, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", got)
			assert.NoError(t, store.HealthCheck(ctx))
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(config.CacheConfig{Backend: "redis"}, zap.NewNop())
	assert.Error(t, err)
}

func TestServer_StartServeShutdown(t *testing.T) {
	dir := t.TempDir()
	// an unreachable routing service exercises the fallback path end to end
	t.Setenv("FIELDROUTE_ROUTING_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("FIELDROUTE_ROUTING_REQUEST_DELAY", "0s")
	t.Setenv("FIELDROUTE_SERVER_ADDR", "127.0.0.1:0")

	cfg, err := config.LoadFrom(dir)
	require.NoError(t, err)

	srv, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	resp2, err := http.Get(fmt.Sprintf("http://%s/api/v1/trips/unknown/route", addr))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}

func TestServer_ShutdownClosesStoreWhenHTTPShutdownFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FIELDROUTE_CACHE_BACKEND", "sqlite")
	t.Setenv("FIELDROUTE_SERVER_ADDR", "127.0.0.1:0")

	cfg, err := config.LoadFrom(dir)
	require.NoError(t, err)

	srv, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)

	// a fresh connection that never sends a request keeps the server busy
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// connections are accepted in order, so once this answers the one above is tracked
	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", addr))
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = srv.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Error(t, srv.store.HealthCheck(context.Background()), "store should be closed")

	_, err = srv.service.StartPrefetch(context.Background())
	var unavailable *routing.ErrPrefetchUnavailable
	assert.True(t, errors.As(err, &unavailable), "service should be closed")
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(recoveryMiddleware(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
