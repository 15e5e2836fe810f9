package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"field-survey-router/internal/models"
)

// RouteClient requests a road route through an ordered set of waypoints
type RouteClient interface {
	RequestRoute(ctx context.Context, waypoints []models.Waypoint) (*models.RouteResult, error)
}

// ErrRouteFailed is returned for every kind of routing service failure
type ErrRouteFailed struct {
	Waypoints int
	Reason    string
}

func (e *ErrRouteFailed) Error() string {
	return fmt.Sprintf("route request failed: %s", e.Reason)
}

// ClientConfig configures the OSRM route client
type ClientConfig struct {
	BaseURL      string
	Profile      string
	MaxWaypoints int
	Timeout      time.Duration
}

// DefaultClientConfig returns settings for the public OSRM demo server
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      "https://router.project-osrm.org",
		Profile:      "driving",
		MaxWaypoints: models.MaxRouteWaypoints,
		Timeout:      30 * time.Second,
	}
}

type osrmClient struct {
	baseURL      string
	profile      string
	maxWaypoints int
	httpClient   *http.Client
	logger       *zap.Logger
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry *geojson.Geometry `json:"geometry"`
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Legs     []osrmLeg         `json:"legs"`
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// NewOSRMClient creates a route client for an OSRM-compatible server
func NewOSRMClient(cfg ClientConfig, logger *zap.Logger) RouteClient {
	defaults := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = defaults.Profile
	}
	if cfg.MaxWaypoints < 2 {
		cfg.MaxWaypoints = defaults.MaxWaypoints
	}

	return &osrmClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		profile:      cfg.Profile,
		maxWaypoints: cfg.MaxWaypoints,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("osrm"),
	}
}

// RequestRoute asks OSRM for a route through the waypoints in order.
// Only the first maxWaypoints waypoints are submitted; the response is used
// as-is for that subset.
func (c *osrmClient) RequestRoute(ctx context.Context, waypoints []models.Waypoint) (*models.RouteResult, error) {
	submitted := waypoints
	if len(submitted) > c.maxWaypoints {
		c.logger.Warn("truncating waypoints to service limit",
			zap.Int("waypoints", len(waypoints)),
			zap.Int("limit", c.maxWaypoints),
		)
		submitted = submitted[:c.maxWaypoints]
	}
	n := len(submitted)
	if n < 2 {
		return nil, &ErrRouteFailed{Waypoints: n, Reason: "at least 2 waypoints required"}
	}

	queryURL := c.routeURL(submitted)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		c.logger.Error("failed to create route request", zap.Int("waypoints", n), zap.Error(err))
		return nil, &ErrRouteFailed{Waypoints: n, Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("route request failed", zap.Int("waypoints", n), zap.Error(err))
		return nil, &ErrRouteFailed{Waypoints: n, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("route service error",
			zap.Int("waypoints", n),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &ErrRouteFailed{
			Waypoints: n,
			Reason:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var osrmResp osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		c.logger.Warn("failed to decode route response", zap.Int("waypoints", n), zap.Error(err))
		return nil, &ErrRouteFailed{Waypoints: n, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" {
		c.logger.Warn("route service returned error code",
			zap.Int("waypoints", n),
			zap.String("code", osrmResp.Code),
			zap.String("message", osrmResp.Message),
		)
		return nil, &ErrRouteFailed{Waypoints: n, Reason: fmt.Sprintf("OSRM error: %s", osrmResp.Code)}
	}

	if len(osrmResp.Routes) == 0 {
		c.logger.Warn("route service returned no routes", zap.Int("waypoints", n))
		return nil, &ErrRouteFailed{Waypoints: n, Reason: "no routes returned"}
	}

	route := osrmResp.Routes[0]
	path, err := pathFromGeometry(route.Geometry)
	if err != nil {
		c.logger.Warn("unusable route geometry", zap.Int("waypoints", n), zap.Error(err))
		return nil, &ErrRouteFailed{Waypoints: n, Reason: err.Error()}
	}

	legs := make([]models.Leg, len(route.Legs))
	for i, leg := range route.Legs {
		legs[i] = models.Leg{DistanceMeters: leg.Distance}
	}

	c.logger.Debug("route resolved",
		zap.Int("waypoints", n),
		zap.Int("path_points", len(path)),
		zap.Int("legs", len(legs)),
		zap.Float64("distance_meters", route.Distance),
	)

	return &models.RouteResult{
		Path:   path,
		Legs:   legs,
		Source: models.RouteSourceService,
	}, nil
}

func (c *osrmClient) routeURL(waypoints []models.Waypoint) string {
	coords := make([]string, len(waypoints))
	for i, w := range waypoints {
		coords[i] = fmt.Sprintf("%.6f,%.6f", w.Longitude, w.Latitude)
	}

	return fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson",
		c.baseURL, c.profile, strings.Join(coords, ";"))
}

// pathFromGeometry flips GeoJSON [lon, lat] positions into [lat, lng] pairs
func pathFromGeometry(g *geojson.Geometry) ([][2]float64, error) {
	if g == nil || g.Coordinates == nil {
		return nil, fmt.Errorf("route has no geometry")
	}

	line, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected geometry type %q", g.Type)
	}

	path := make([][2]float64, len(line))
	for i, p := range line {
		path[i] = [2]float64{p.Lat(), p.Lon()}
	}
	return path, nil
}
