package testutil

import (
	"context"
	"errors"
	"sync"

	"field-survey-router/internal/models"
)

// ErrServiceDown is the default failure returned by a failing MockRouteClient
var ErrServiceDown = errors.New("routing service unavailable")

// MockRouteClient is a RouteClient for tests. By default it returns a
// service route whose path and legs mirror the submitted waypoints.
type MockRouteClient struct {
	mu sync.Mutex

	// Err, when set, is returned for every call
	Err error
	// Result, when set, is returned (copied) for every call
	Result *models.RouteResult
	// FailFor makes calls fail for waypoint sets whose first waypoint ID is listed
	FailFor map[string]bool

	Calls [][]models.Waypoint
}

func NewMockRouteClient() *MockRouteClient {
	return &MockRouteClient{FailFor: make(map[string]bool)}
}

// NewFailingRouteClient returns a client whose every call fails
func NewFailingRouteClient() *MockRouteClient {
	c := NewMockRouteClient()
	c.Err = ErrServiceDown
	return c
}

func (m *MockRouteClient) RequestRoute(ctx context.Context, waypoints []models.Waypoint) (*models.RouteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	submitted := make([]models.Waypoint, len(waypoints))
	copy(submitted, waypoints)
	m.Calls = append(m.Calls, submitted)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(waypoints) > 0 && m.FailFor[waypoints[0].ID] {
		return nil, ErrServiceDown
	}

	if m.Result != nil {
		r := *m.Result
		r.Path = append([][2]float64{}, m.Result.Path...)
		r.Legs = append([]models.Leg{}, m.Result.Legs...)
		return &r, nil
	}

	path := make([][2]float64, len(waypoints))
	for i, w := range waypoints {
		path[i] = [2]float64{w.Latitude, w.Longitude}
	}
	legs := make([]models.Leg, 0, len(waypoints))
	for i := 1; i < len(waypoints); i++ {
		legs = append(legs, models.Leg{DistanceMeters: float64(i) * 1000})
	}

	return &models.RouteResult{
		Path:   path,
		Legs:   legs,
		Source: models.RouteSourceService,
	}, nil
}

// CallCount returns the number of recorded calls
func (m *MockRouteClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// ResetCalls clears the recorded calls
func (m *MockRouteClient) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// MockRouteCache is an in-memory RouteCacheRepository for tests
type MockRouteCache struct {
	mu        sync.Mutex
	waypoints map[string][]models.Waypoint
	routes    map[string]*models.RouteResult

	// GetErr, when set, is returned by Get
	GetErr error

	RouteWrites int
}

func NewMockRouteCache() *MockRouteCache {
	return &MockRouteCache{
		waypoints: make(map[string][]models.Waypoint),
		routes:    make(map[string]*models.RouteResult),
	}
}

func (c *MockRouteCache) Get(ctx context.Context, tripID string) (*models.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.GetErr != nil {
		return nil, c.GetErr
	}

	wps, hasWps := c.waypoints[tripID]
	route, hasRoute := c.routes[tripID]
	if !hasWps && !hasRoute {
		return nil, nil
	}
	return &models.CacheEntry{TripID: tripID, Waypoints: wps, Route: route}, nil
}

func (c *MockRouteCache) Put(ctx context.Context, tripID string, entry *models.CacheEntry) error {
	if entry == nil {
		return nil
	}
	if entry.Waypoints != nil {
		c.SetWaypoints(ctx, tripID, entry.Waypoints)
	}
	if entry.Route != nil {
		c.SetRoute(ctx, tripID, entry.Route)
	}
	return nil
}

func (c *MockRouteCache) SetWaypoints(ctx context.Context, tripID string, waypoints []models.Waypoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if waypoints == nil {
		waypoints = []models.Waypoint{}
	}
	c.waypoints[tripID] = waypoints
	return nil
}

func (c *MockRouteCache) SetRoute(ctx context.Context, tripID string, route *models.RouteResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[tripID] = route
	c.RouteWrites++
	return nil
}

func (c *MockRouteCache) HasCompleteRoute(ctx context.Context, tripID string) bool {
	entry, err := c.Get(ctx, tripID)
	if err != nil {
		return false
	}
	return entry.IsComplete()
}

func (c *MockRouteCache) Delete(ctx context.Context, tripID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waypoints, tripID)
	delete(c.routes, tripID)
	return nil
}

func (c *MockRouteCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waypoints = make(map[string][]models.Waypoint)
	c.routes = make(map[string]*models.RouteResult)
	return nil
}

// Route returns the cached route for a trip, if any
func (c *MockRouteCache) Route(tripID string) *models.RouteResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes[tripID]
}
