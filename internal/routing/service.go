package routing

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"field-survey-router/internal/database"
	"field-survey-router/internal/models"
	"field-survey-router/internal/survey"
)

// Service ties the tour source, the route resolver and the prefetcher together
// for the HTTP layer.
type Service struct {
	source     database.TourSource
	cache      database.RouteCacheRepository
	resolver   RouteResolver
	prefetcher *Prefetcher
	logger     *zap.Logger

	// background prefetch runs are detached from request contexts
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu  sync.Mutex
	run *PrefetchRun
}

// NewService creates the route service
func NewService(source database.TourSource, cache database.RouteCacheRepository, resolver RouteResolver, prefetcher *Prefetcher, logger *zap.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		source:     source,
		cache:      cache,
		resolver:   resolver,
		prefetcher: prefetcher,
		logger:     logger.Named("route_service"),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// TripRoute resolves and renders the route of one trip.
// Returns database.ErrNotFound for an unknown trip.
func (s *Service) TripRoute(ctx context.Context, tripID string) (*models.RouteView, error) {
	if _, err := s.source.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}

	surveys, err := s.source.ListSurveys(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	waypoints := survey.NormalizeWaypoints(surveys, tripID)

	expenses, err := s.source.ListExpenses(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	result := s.resolver.Resolve(ctx, tripID, waypoints)

	view := BuildView(tripID, waypoints, result)
	view.ExpenseTotal = survey.TotalExpenses(expenses, tripID)
	return &view, nil
}

// TripStatuses lists every trip with whether a complete route is cached
func (s *Service) TripStatuses(ctx context.Context) ([]models.TripStatus, error) {
	trips, err := s.source.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	statuses := make([]models.TripStatus, len(trips))
	for i, trip := range trips {
		statuses[i] = models.TripStatus{
			Trip:        trip,
			RouteCached: s.cache.HasCompleteRoute(ctx, trip.ID),
		}
	}
	return statuses, nil
}

// StartPrefetch launches a background prefetch over all trips, replacing
// any run still in progress.
func (s *Service) StartPrefetch(ctx context.Context) (*PrefetchRun, error) {
	if s.prefetcher == nil {
		return nil, &ErrPrefetchUnavailable{Reason: "prefetcher not configured"}
	}
	if s.baseCtx.Err() != nil {
		return nil, &ErrPrefetchUnavailable{Reason: "service closed"}
	}

	trips, err := s.source.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	surveys, err := s.source.ListSurveys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	waypointsByTrip := survey.GroupByTrip(surveys)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil && s.run.Running() {
		s.logger.Info("replacing running prefetch")
		s.run.Cancel()
	}
	s.run = s.prefetcher.Start(s.baseCtx, trips, waypointsByTrip)
	return s.run, nil
}

// CancelPrefetch stops the current prefetch run. Returns false if none is running.
func (s *Service) CancelPrefetch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil || !s.run.Running() {
		return false
	}
	s.run.Cancel()
	return true
}

// PrefetchRunning reports whether a prefetch run is in progress
func (s *Service) PrefetchRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && s.run.Running()
}

// InvalidateTrip drops everything cached for a trip.
// Returns database.ErrNotFound for an unknown trip.
func (s *Service) InvalidateTrip(ctx context.Context, tripID string) error {
	if _, err := s.source.GetTrip(ctx, tripID); err != nil {
		return err
	}
	return s.cache.Delete(ctx, tripID)
}

// Close cancels any background work and waits for it to stop
func (s *Service) Close() {
	s.baseCancel()

	s.mu.Lock()
	run := s.run
	s.mu.Unlock()

	if run != nil {
		<-run.Done()
	}
}
