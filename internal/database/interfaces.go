package database

import (
	"context"

	"field-survey-router/internal/models"
)

// KVStore is a durable string key/value store backing the route cache
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// RouteCacheRepository handles per-trip waypoint snapshots and routes.
// Writes are last-writer-wins; entries never expire.
type RouteCacheRepository interface {
	Get(ctx context.Context, tripID string) (*models.CacheEntry, error)
	Put(ctx context.Context, tripID string, entry *models.CacheEntry) error
	SetWaypoints(ctx context.Context, tripID string, waypoints []models.Waypoint) error
	SetRoute(ctx context.Context, tripID string, route *models.RouteResult) error
	HasCompleteRoute(ctx context.Context, tripID string) bool
	Delete(ctx context.Context, tripID string) error
	Clear(ctx context.Context) error
}

// TourSource reads trips and their raw survey and expense records
type TourSource interface {
	ListTrips(ctx context.Context) ([]models.Trip, error)
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	ListSurveys(ctx context.Context, tripID string) ([]models.SurveyRecord, error)
	ListExpenses(ctx context.Context, tripID string) ([]models.ExpenseRecord, error)
}
