package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"field-survey-router/internal/models"
)

const (
	waypointsKeyPrefix = "waypoints:"
	routeKeyPrefix     = "route:"
)

// WaypointsKey is the storage key of a trip's waypoint snapshot
func WaypointsKey(tripID string) string { return waypointsKeyPrefix + tripID }

// RouteKey is the storage key of a trip's resolved route
func RouteKey(tripID string) string { return routeKeyPrefix + tripID }

// RouteCache stores trip snapshots and routes as JSON values in a KVStore.
// Values that fail to decode are reported as absent.
type RouteCache struct {
	store  KVStore
	logger *zap.Logger
}

// NewRouteCache creates a route cache on top of the given store
func NewRouteCache(store KVStore, logger *zap.Logger) *RouteCache {
	return &RouteCache{
		store:  store,
		logger: logger.Named("route_cache"),
	}
}

func (c *RouteCache) Get(ctx context.Context, tripID string) (*models.CacheEntry, error) {
	entry := &models.CacheEntry{TripID: tripID}

	raw, ok, err := c.store.Get(ctx, WaypointsKey(tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to read waypoint snapshot: %w", err)
	}
	if ok {
		entry.Waypoints = c.decodeWaypoints(tripID, raw)
	}

	raw, ok, err = c.store.Get(ctx, RouteKey(tripID))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached route: %w", err)
	}
	if ok {
		entry.Route = c.decodeRoute(tripID, raw)
	}

	if entry.Waypoints == nil && entry.Route == nil {
		return nil, nil
	}
	return entry, nil
}

func (c *RouteCache) decodeWaypoints(tripID, raw string) []models.Waypoint {
	var waypoints []models.Waypoint
	if err := json.Unmarshal([]byte(raw), &waypoints); err != nil {
		c.logger.Warn("discarding corrupt waypoint snapshot", zap.String("trip_id", tripID), zap.Error(err))
		return nil
	}
	if waypoints == nil {
		c.logger.Warn("discarding empty waypoint snapshot", zap.String("trip_id", tripID))
	}
	return waypoints
}

func (c *RouteCache) decodeRoute(tripID, raw string) *models.RouteResult {
	var route models.RouteResult
	if err := json.Unmarshal([]byte(raw), &route); err != nil {
		c.logger.Warn("discarding corrupt cached route", zap.String("trip_id", tripID), zap.Error(err))
		return nil
	}
	if route.Source != models.RouteSourceService && route.Source != models.RouteSourceFallback {
		c.logger.Warn("discarding cached route with unknown source",
			zap.String("trip_id", tripID),
			zap.String("source", string(route.Source)),
		)
		return nil
	}
	if route.Path == nil {
		route.Path = [][2]float64{}
	}
	if route.Legs == nil {
		route.Legs = []models.Leg{}
	}
	return &route
}

// Put writes whichever namespaces of the entry are set
func (c *RouteCache) Put(ctx context.Context, tripID string, entry *models.CacheEntry) error {
	if entry == nil {
		return nil
	}
	if entry.Waypoints != nil {
		if err := c.SetWaypoints(ctx, tripID, entry.Waypoints); err != nil {
			return err
		}
	}
	if entry.Route != nil {
		if err := c.SetRoute(ctx, tripID, entry.Route); err != nil {
			return err
		}
	}
	return nil
}

func (c *RouteCache) SetWaypoints(ctx context.Context, tripID string, waypoints []models.Waypoint) error {
	if waypoints == nil {
		waypoints = []models.Waypoint{}
	}

	data, err := json.Marshal(waypoints)
	if err != nil {
		return fmt.Errorf("failed to marshal waypoint snapshot: %w", err)
	}

	if err := c.store.Set(ctx, WaypointsKey(tripID), string(data)); err != nil {
		return fmt.Errorf("failed to store waypoint snapshot: %w", err)
	}
	return nil
}

func (c *RouteCache) SetRoute(ctx context.Context, tripID string, route *models.RouteResult) error {
	if route == nil {
		return fmt.Errorf("nil route for trip %s", tripID)
	}

	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}

	if err := c.store.Set(ctx, RouteKey(tripID), string(data)); err != nil {
		return fmt.Errorf("failed to store route: %w", err)
	}
	return nil
}

// HasCompleteRoute reports whether a usable route is cached for the trip.
// Store failures count as a miss.
func (c *RouteCache) HasCompleteRoute(ctx context.Context, tripID string) bool {
	entry, err := c.Get(ctx, tripID)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("trip_id", tripID), zap.Error(err))
		return false
	}
	return entry.IsComplete()
}

func (c *RouteCache) Delete(ctx context.Context, tripID string) error {
	if err := c.store.Delete(ctx, WaypointsKey(tripID), RouteKey(tripID)); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (c *RouteCache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear route cache: %w", err)
	}
	return nil
}
