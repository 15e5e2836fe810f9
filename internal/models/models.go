package models

import (
	"fmt"
	"math"
	"time"
)

// MaxRouteWaypoints is the most waypoints the public OSRM route endpoint accepts per request
const MaxRouteWaypoints = 90

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RoundCoordinate rounds a coordinate to 5 decimal places (~1m precision)
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// Waypoint is a single visited stop of a trip
type Waypoint struct {
	ID         string  `json:"id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Label      string  `json:"label,omitempty"`
	PersonName string  `json:"person_name,omitempty"`
}

// Coords returns the coordinates of the waypoint
func (w Waypoint) Coords() Coordinates {
	return Coordinates{Lat: w.Latitude, Lng: w.Longitude}
}

// DisplayLabel returns the label shown for the waypoint at the given position
func (w Waypoint) DisplayLabel(index int) string {
	if w.Label != "" {
		return w.Label
	}
	return fmt.Sprintf("Stop %d", index+1)
}

// Trip is a field excursion (tour) grouping a set of waypoints
type Trip struct {
	ID        string     `json:"id"`
	Status    bool       `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Active reports whether the trip is still in progress
func (t Trip) Active() bool {
	return t.Status
}

// RouteSource tells where a RouteResult came from
type RouteSource string

const (
	RouteSourceService  RouteSource = "service"
	RouteSourceFallback RouteSource = "fallback"
)

// Leg is the segment between two consecutive waypoints
type Leg struct {
	DistanceMeters float64 `json:"distance_meters"`
}

// RouteResult is a resolved route for a trip.
// Path holds [lat, lng] pairs in render order.
type RouteResult struct {
	Path       [][2]float64 `json:"path"`
	Legs       []Leg        `json:"legs"`
	Source     RouteSource  `json:"source"`
	Signature  string       `json:"signature"`
	ComputedAt time.Time    `json:"computed_at"`
}

// TotalDistanceMeters sums the leg distances
func (r *RouteResult) TotalDistanceMeters() float64 {
	var total float64
	for _, leg := range r.Legs {
		total += leg.DistanceMeters
	}
	return total
}

// CacheEntry is everything cached for one trip. A nil field means that
// namespace has nothing stored.
type CacheEntry struct {
	TripID    string       `json:"trip_id"`
	Waypoints []Waypoint   `json:"waypoints,omitempty"`
	Route     *RouteResult `json:"route,omitempty"`
}

// IsComplete reports whether the entry holds a route computed from its
// waypoint snapshot. Service routes are authoritative whatever their leg
// count (long trips are submitted truncated); fallback routes need one leg
// per consecutive pair. Snapshots with fewer than 2 waypoints are exempt
// from the leg check.
func (e *CacheEntry) IsComplete() bool {
	if e == nil || e.Waypoints == nil || e.Route == nil {
		return false
	}
	if e.Route.Signature != Signature(e.Waypoints) {
		return false
	}

	n := len(e.Waypoints)
	switch {
	case n < 2:
		return true
	case e.Route.Source == RouteSourceService:
		return len(e.Route.Legs) > 0
	default:
		return len(e.Route.Legs) == n-1
	}
}

// LatLong is the raw coordinate pair on an upstream survey record
type LatLong struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SurveyRecord is a raw field-visit record from the upstream store
type SurveyRecord struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tourId"`
	LatLong   *LatLong  `json:"latLong"`
	Location  string    `json:"location"`
	ShopName  string    `json:"shopName"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExpenseRecord is a raw expense logged against a trip
type ExpenseRecord struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tourId"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// StopView is a single stop in the rendered stop list
type StopView struct {
	Order      int     `json:"order"`
	Label      string  `json:"label"`
	PersonName string  `json:"person_name,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// LegView is a leg with its display label
type LegView struct {
	DistanceMeters float64 `json:"distance_meters"`
	Label          string  `json:"label"`
}

// RouteView is what the presentation layer renders for one trip
type RouteView struct {
	TripID              string       `json:"trip_id"`
	Source              RouteSource  `json:"source"`
	Path                [][2]float64 `json:"path"`
	EncodedPolyline     string       `json:"encoded_polyline"`
	Stops               []StopView   `json:"stops"`
	Legs                []LegView    `json:"legs"`
	TotalDistanceMeters float64      `json:"total_distance_meters"`
	TotalDistance       string       `json:"total_distance"`
	ExpenseTotal        float64      `json:"expense_total"`
}

// TripStatus pairs a trip with the state of its cached route
type TripStatus struct {
	Trip        Trip `json:"trip"`
	RouteCached bool `json:"route_cached"`
}
