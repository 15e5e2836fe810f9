package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"field-survey-router/internal/database"
	"field-survey-router/internal/distance"
	"field-survey-router/internal/models"
	"field-survey-router/internal/routing"
)

// EnvPrefix prefixes every environment override, e.g. FIELDROUTE_SERVER_ADDR
const EnvPrefix = "FIELDROUTE"

const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

// Config holds all configuration for the route service.
type Config struct {
	AppEnv   string
	AppDir   string
	Server   ServerConfig
	Cache    CacheConfig
	Routing  RoutingConfig
	Prefetch PrefetchConfig
	Upstream UpstreamConfig
}

type ServerConfig struct {
	Addr string
}

type CacheConfig struct {
	Backend string
	Path    string
	// MemorySize is the LRU front size; 0 disables it
	MemorySize int
}

type RoutingConfig struct {
	BaseURL      string
	Profile      string
	MaxWaypoints int
	Timeout      time.Duration
	RequestDelay time.Duration
	SingleFlight bool
}

// ClientConfig returns the OSRM client settings
func (c RoutingConfig) ClientConfig() distance.ClientConfig {
	return distance.ClientConfig{
		BaseURL:      c.BaseURL,
		Profile:      c.Profile,
		MaxWaypoints: c.MaxWaypoints,
		Timeout:      c.Timeout,
	}
}

// ResolverConfig returns the interactive resolver settings
func (c RoutingConfig) ResolverConfig() routing.ResolverConfig {
	return routing.ResolverConfig{
		RequestDelay: c.RequestDelay,
		SingleFlight: c.SingleFlight,
	}
}

type PrefetchConfig struct {
	Interval time.Duration
	OnStart  bool
}

type UpstreamConfig struct {
	Path string
}

// Load reads configuration from the app directory (~/.field-survey-router)
// and environment variables.
func Load() (*Config, error) {
	appDir, err := database.GetAppDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(appDir)
}

// LoadFrom reads an optional config.yaml in dir, applies FIELDROUTE_*
// environment overrides and fills in defaults. Relative paths are
// resolved against dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AppEnv: v.GetString("app.env"),
		AppDir: dir,
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("cache.backend")),
			Path:       v.GetString("cache.path"),
			MemorySize: v.GetInt("cache.memory_size"),
		},
		Routing: RoutingConfig{
			BaseURL:      strings.TrimRight(v.GetString("routing.base_url"), "/"),
			Profile:      v.GetString("routing.profile"),
			MaxWaypoints: v.GetInt("routing.max_waypoints"),
			Timeout:      v.GetDuration("routing.timeout"),
			RequestDelay: v.GetDuration("routing.request_delay"),
			SingleFlight: v.GetBool("routing.single_flight"),
		},
		Prefetch: PrefetchConfig{
			Interval: v.GetDuration("prefetch.interval"),
			OnStart:  v.GetBool("prefetch.on_start"),
		},
		Upstream: UpstreamConfig{
			Path: v.GetString("upstream.path"),
		},
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	client := distance.DefaultClientConfig()

	v.SetDefault("app.env", "production")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("cache.backend", CacheBackendFile)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.memory_size", 256)
	v.SetDefault("routing.base_url", client.BaseURL)
	v.SetDefault("routing.profile", client.Profile)
	v.SetDefault("routing.max_waypoints", client.MaxWaypoints)
	v.SetDefault("routing.timeout", client.Timeout)
	v.SetDefault("routing.request_delay", routing.DefaultRequestDelay)
	v.SetDefault("routing.single_flight", false)
	v.SetDefault("prefetch.interval", routing.DefaultPrefetchInterval)
	v.SetDefault("prefetch.on_start", false)
	v.SetDefault("upstream.path", "")
}

func (c *Config) resolvePaths() error {
	if c.Cache.Path == "" {
		name := database.RouteCacheFile
		if c.Cache.Backend == CacheBackendSQLite {
			name = database.SQLiteDBFileName
		}
		c.Cache.Path = filepath.Join(database.CacheDirName, name)
	}
	if c.Upstream.Path == "" {
		c.Upstream.Path = database.ExportFileName
	}

	if !filepath.IsAbs(c.Cache.Path) {
		c.Cache.Path = filepath.Join(c.AppDir, c.Cache.Path)
	}
	if !filepath.IsAbs(c.Upstream.Path) {
		c.Upstream.Path = filepath.Join(c.AppDir, c.Upstream.Path)
	}
	return nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.MemorySize < 0 {
		return fmt.Errorf("cache.memory_size must not be negative")
	}
	if c.Routing.MaxWaypoints < 2 || c.Routing.MaxWaypoints > models.MaxRouteWaypoints {
		return fmt.Errorf("routing.max_waypoints must be between 2 and %d", models.MaxRouteWaypoints)
	}
	if c.Routing.Timeout < 0 || c.Routing.RequestDelay < 0 || c.Prefetch.Interval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}
