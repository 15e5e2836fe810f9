package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"field-survey-router/internal/config"
	"field-survey-router/internal/database"
	"field-survey-router/internal/distance"
	"field-survey-router/internal/handlers"
	"field-survey-router/internal/routing"
	"field-survey-router/internal/sqlite"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	service    *routing.Service
	store      database.KVStore
	listener   net.Listener
	addr       string
	cfg        *config.Config
	logger     *zap.Logger
}

// New creates and initializes a new server (does not start it)
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	logger.Info("initializing route cache",
		zap.String("backend", cfg.Cache.Backend),
		zap.String("path", cfg.Cache.Path),
	)
	store, err := OpenStore(cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize route cache: %w", err)
	}

	logger.Info("loading tour export", zap.String("path", cfg.Upstream.Path))
	source, err := database.NewJSONTourSource(cfg.Upstream.Path, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize tour source: %w", err)
	}

	cache := database.NewRouteCache(store, logger)
	client := distance.NewOSRMClient(cfg.Routing.ClientConfig(), logger)
	resolver := routing.NewResolver(cache, client, cfg.Routing.ResolverConfig(), logger)
	prefetcher := routing.NewPrefetcher(cache, client, cfg.Prefetch.Interval, logger)
	service := routing.NewService(source, cache, resolver, prefetcher, logger)

	handler := &handlers.Handler{
		Routes: service,
		Store:  store,
		Logger: logger.Named("http"),
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(handler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		service:    service,
		store:      store,
		addr:       cfg.Server.Addr,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// OpenStore opens the configured cache backend, fronted by an in-memory LRU
// unless its size is 0
func OpenStore(cfg config.CacheConfig, logger *zap.Logger) (database.KVStore, error) {
	var store database.KVStore
	switch cfg.Backend {
	case config.CacheBackendSQLite:
		s, err := sqlite.New(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	case config.CacheBackendFile:
		s, err := database.NewFileStore(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if cfg.MemorySize > 0 {
		store = database.NewLRUStore(store, cfg.MemorySize)
	}
	return store, nil
}

func newRouter(handler *handlers.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(recoveryMiddleware(logger))
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	handler.RegisterRoutes(&router.RouterGroup)
	return router
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	s.logger.Info("starting server", zap.String("addr", actualAddr))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	if s.cfg.Prefetch.OnStart {
		if _, err := s.service.StartPrefetch(context.Background()); err != nil {
			s.logger.Warn("startup prefetch not started", zap.Error(err))
		}
	}

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server, stops background prefetching
// and closes the cache store. The service and store are closed even when the
// HTTP shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	httpErr := s.httpServer.Shutdown(ctx)
	if httpErr != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(httpErr))
	}
	s.service.Close()
	return errors.Join(httpErr, s.store.Close())
}
