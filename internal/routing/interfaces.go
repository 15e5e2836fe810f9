package routing

import (
	"context"
	"fmt"

	"field-survey-router/internal/models"
)

// RouteResolver produces a route for a trip's waypoints. It always returns
// a usable result; failures degrade to a fallback route.
type RouteResolver interface {
	Resolve(ctx context.Context, tripID string, waypoints []models.Waypoint) *models.RouteResult
}

// ErrPrefetchUnavailable is returned when a prefetch run cannot be started
type ErrPrefetchUnavailable struct {
	Reason string
}

func (e *ErrPrefetchUnavailable) Error() string {
	return fmt.Sprintf("prefetch unavailable: %s", e.Reason)
}
