package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, CacheBackendFile, cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(dir, "cache", "routes.json"), cfg.Cache.Path)
	assert.Equal(t, 256, cfg.Cache.MemorySize)
	assert.Equal(t, "https://router.project-osrm.org", cfg.Routing.BaseURL)
	assert.Equal(t, "driving", cfg.Routing.Profile)
	assert.Equal(t, 90, cfg.Routing.MaxWaypoints)
	assert.Equal(t, 30*time.Second, cfg.Routing.Timeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Routing.RequestDelay)
	assert.False(t, cfg.Routing.SingleFlight)
	assert.Equal(t, 600*time.Millisecond, cfg.Prefetch.Interval)
	assert.False(t, cfg.Prefetch.OnStart)
	assert.Equal(t, filepath.Join(dir, "export.json"), cfg.Upstream.Path)
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
app:
  env: development
cache:
  backend: sqlite
  memory_size: 0
routing:
  base_url: http://localhost:5000/
  request_delay: 0s
  single_flight: true
prefetch:
  interval: 1s
  on_start: true
upstream:
  path: /data/export.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(dir, "cache", "routes.db"), cfg.Cache.Path)
	assert.Equal(t, 0, cfg.Cache.MemorySize)
	assert.Equal(t, "http://localhost:5000", cfg.Routing.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Routing.RequestDelay)
	assert.True(t, cfg.Routing.SingleFlight)
	assert.Equal(t, time.Second, cfg.Prefetch.Interval)
	assert.True(t, cfg.Prefetch.OnStart)
	assert.Equal(t, "/data/export.json", cfg.Upstream.Path)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("FIELDROUTE_SERVER_ADDR", "0.0.0.0:9000")
	t.Setenv("FIELDROUTE_ROUTING_PROFILE", "foot")
	t.Setenv("FIELDROUTE_PREFETCH_INTERVAL", "2s")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "foot", cfg.Routing.Profile)
	assert.Equal(t, 2*time.Second, cfg.Prefetch.Interval)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"FIELDROUTE_CACHE_BACKEND": "redis"}},
		{"too many waypoints", map[string]string{"FIELDROUTE_ROUTING_MAX_WAYPOINTS": "120"}},
		{"too few waypoints", map[string]string{"FIELDROUTE_ROUTING_MAX_WAYPOINTS": "1"}},
		{"negative memory size", map[string]string{"FIELDROUTE_CACHE_MEMORY_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("routing: [unclosed"), 0600))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestRoutingConfigConversions(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	client := cfg.Routing.ClientConfig()
	assert.Equal(t, cfg.Routing.BaseURL, client.BaseURL)
	assert.Equal(t, 90, client.MaxWaypoints)

	resolver := cfg.Routing.ResolverConfig()
	assert.Equal(t, cfg.Routing.RequestDelay, resolver.RequestDelay)
}
