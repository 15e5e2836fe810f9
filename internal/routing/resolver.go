package routing

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"field-survey-router/internal/database"
	"field-survey-router/internal/distance"
	"field-survey-router/internal/models"
)

// DefaultRequestDelay is the pause before each interactive routing call
const DefaultRequestDelay = 300 * time.Millisecond

// ResolverConfig tunes the Resolver
type ResolverConfig struct {
	RequestDelay time.Duration
	// SingleFlight coalesces concurrent resolutions of the same trip and waypoints
	SingleFlight bool
}

// Resolver answers route requests for the interactive view. Cached routes
// are reused when their signature matches, otherwise the routing service is
// called and any failure degrades to a straight-line fallback.
type Resolver struct {
	cache        database.RouteCacheRepository
	client       distance.RouteClient
	logger       *zap.Logger
	requestDelay time.Duration
	group        *singleflight.Group

	wait func(ctx context.Context, d time.Duration) bool
	now  func() time.Time
}

// NewResolver creates a resolver over the given cache and routing client
func NewResolver(cache database.RouteCacheRepository, client distance.RouteClient, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	r := &Resolver{
		cache:        cache,
		client:       client,
		logger:       logger.Named("resolver"),
		requestDelay: cfg.RequestDelay,
		wait:         waitCtx,
		now:          time.Now,
	}
	if r.requestDelay < 0 {
		r.requestDelay = 0
	}
	if cfg.SingleFlight {
		r.group = &singleflight.Group{}
	}
	return r
}

// Resolve returns the route for a trip. The result may be shared with
// concurrent callers and must not be modified.
//
// Resolution runs to completion even if ctx is cancelled: a caller going
// away must not turn a healthy service route into a cached fallback.
func (r *Resolver) Resolve(ctx context.Context, tripID string, waypoints []models.Waypoint) *models.RouteResult {
	ctx = context.WithoutCancel(ctx)

	if r.group == nil {
		return r.resolve(ctx, tripID, waypoints)
	}

	key := tripID + "|" + models.Signature(waypoints)
	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, tripID, waypoints), nil
	})
	return v.(*models.RouteResult)
}

func (r *Resolver) resolve(ctx context.Context, tripID string, waypoints []models.Waypoint) *models.RouteResult {
	sig := models.Signature(waypoints)

	entry, err := r.cache.Get(ctx, tripID)
	if err != nil {
		r.logger.Warn("cache read failed, resolving fresh", zap.String("trip_id", tripID), zap.Error(err))
	}
	if entry != nil && entry.Route != nil && entry.Route.Signature == sig {
		r.logger.Debug("route cache hit",
			zap.String("trip_id", tripID),
			zap.String("source", string(entry.Route.Source)),
		)
		return entry.Route
	}

	if err := r.cache.SetWaypoints(ctx, tripID, waypoints); err != nil {
		r.logger.Warn("failed to store waypoint snapshot", zap.String("trip_id", tripID), zap.Error(err))
	}

	var result *models.RouteResult
	if len(waypoints) < 2 {
		result = r.fallback(waypoints, sig)
	} else {
		r.wait(ctx, r.requestDelay)

		routed, err := r.client.RequestRoute(ctx, waypoints)
		if err != nil {
			r.logger.Warn("routing service failed, using straight-line fallback",
				zap.String("trip_id", tripID),
				zap.Int("waypoints", len(waypoints)),
				zap.Error(err),
			)
			result = r.fallback(waypoints, sig)
		} else {
			routed.Signature = sig
			routed.ComputedAt = r.now().UTC()
			result = routed
		}
	}

	if err := r.cache.SetRoute(ctx, tripID, result); err != nil {
		r.logger.Warn("failed to store route", zap.String("trip_id", tripID), zap.Error(err))
	}

	r.logger.Info("route resolved",
		zap.String("trip_id", tripID),
		zap.String("source", string(result.Source)),
		zap.Int("legs", len(result.Legs)),
	)
	return result
}

func (r *Resolver) fallback(waypoints []models.Waypoint, sig string) *models.RouteResult {
	return &models.RouteResult{
		Path:       distance.WaypointPath(waypoints),
		Legs:       distance.FallbackLegs(waypoints),
		Source:     models.RouteSourceFallback,
		Signature:  sig,
		ComputedAt: r.now().UTC(),
	}
}
