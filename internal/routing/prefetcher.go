package routing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"field-survey-router/internal/database"
	"field-survey-router/internal/distance"
	"field-survey-router/internal/models"
)

// DefaultPrefetchInterval is the minimum gap between two prefetch calls to the routing service
const DefaultPrefetchInterval = 600 * time.Millisecond

// PrefetchReport summarizes one prefetch pass
type PrefetchReport struct {
	Active    int  `json:"active"`
	Skipped   int  `json:"skipped"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

// Prefetcher warms the route cache for active trips in the background.
// It talks to the routing client directly and never uses fallback routes,
// so a failed trip is simply retried on the next pass.
type Prefetcher struct {
	cache    database.RouteCacheRepository
	client   distance.RouteClient
	logger   *zap.Logger
	interval time.Duration

	wait func(ctx context.Context, d time.Duration) bool
	now  func() time.Time
}

// NewPrefetcher creates a prefetcher that spaces service calls by interval
func NewPrefetcher(cache database.RouteCacheRepository, client distance.RouteClient, interval time.Duration, logger *zap.Logger) *Prefetcher {
	if interval < 0 {
		interval = 0
	}
	return &Prefetcher{
		cache:    cache,
		client:   client,
		logger:   logger.Named("prefetcher"),
		interval: interval,
		wait:     waitCtx,
		now:      time.Now,
	}
}

// Prefetch walks the active trips one at a time, computing routes for those
// without a complete cache entry. Cancellation is honored between trips; a
// call already in flight is allowed to finish and its route is cached.
func (p *Prefetcher) Prefetch(ctx context.Context, trips []models.Trip, waypointsByTrip map[string][]models.Waypoint) PrefetchReport {
	var report PrefetchReport

	active := make([]models.Trip, 0, len(trips))
	for _, trip := range trips {
		if trip.Active() {
			active = append(active, trip)
		}
	}
	report.Active = len(active)

	p.logger.Info("prefetch started", zap.Int("trips", len(trips)), zap.Int("active", len(active)))

	for _, trip := range active {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if !p.prefetchTrip(ctx, trip.ID, waypointsByTrip[trip.ID], &report) {
			report.Cancelled = true
			break
		}
	}

	p.logger.Info("prefetch finished",
		zap.Int("skipped", report.Skipped),
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Bool("cancelled", report.Cancelled),
	)
	return report
}

// prefetchTrip handles one trip and returns false if ctx ended while waiting
// for the throttle. Errors and panics are counted, never propagated.
func (p *Prefetcher) prefetchTrip(ctx context.Context, tripID string, waypoints []models.Waypoint, report *PrefetchReport) (proceed bool) {
	proceed = true
	defer func() {
		if rec := recover(); rec != nil {
			report.Failed++
			p.logger.Error("prefetch panicked", zap.String("trip_id", tripID), zap.Any("panic", rec))
		}
	}()

	if p.cache.HasCompleteRoute(ctx, tripID) {
		report.Skipped++
		return true
	}
	if len(waypoints) < 2 {
		report.Skipped++
		p.logger.Debug("not enough waypoints to prefetch", zap.String("trip_id", tripID), zap.Int("waypoints", len(waypoints)))
		return true
	}

	if report.Attempted > 0 && !p.wait(ctx, p.interval) {
		return false
	}

	// an in-flight call and its cache write survive cancellation of the run
	callCtx := context.WithoutCancel(ctx)

	report.Attempted++
	result, err := p.client.RequestRoute(callCtx, waypoints)
	if err != nil {
		report.Failed++
		p.logger.Warn("prefetch failed", zap.String("trip_id", tripID), zap.Error(err))
		return true
	}

	result.Signature = models.Signature(waypoints)
	result.ComputedAt = p.now().UTC()

	if err := p.cache.Put(callCtx, tripID, &models.CacheEntry{TripID: tripID, Waypoints: waypoints, Route: result}); err != nil {
		report.Failed++
		p.logger.Warn("failed to cache prefetched route", zap.String("trip_id", tripID), zap.Error(err))
		return true
	}

	report.Succeeded++
	p.logger.Debug("route prefetched", zap.String("trip_id", tripID), zap.Int("legs", len(result.Legs)))
	return true
}

// PrefetchRun is a prefetch pass running in its own goroutine
type PrefetchRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	report PrefetchReport
}

// Start runs Prefetch in the background. The run ends when it finishes or
// when parent is cancelled or Cancel is called.
func (p *Prefetcher) Start(parent context.Context, trips []models.Trip, waypointsByTrip map[string][]models.Waypoint) *PrefetchRun {
	ctx, cancel := context.WithCancel(parent)
	run := &PrefetchRun{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(run.done)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Error("prefetch run aborted", zap.String("panic", fmt.Sprint(rec)))
			}
		}()
		run.report = p.Prefetch(ctx, trips, waypointsByTrip)
	}()

	return run
}

// Cancel stops the run before its next trip
func (r *PrefetchRun) Cancel() {
	r.cancel()
}

// Done is closed once the run has stopped
func (r *PrefetchRun) Done() <-chan struct{} {
	return r.done
}

// Running reports whether the run is still going
func (r *PrefetchRun) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Report returns the final report. It blocks until the run has stopped.
func (r *PrefetchRun) Report() PrefetchReport {
	<-r.done
	return r.report
}

// waitCtx waits for d and reports false if ctx ended first
func waitCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
