package distance

import (
	"math"

	"field-survey-router/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle estimates
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points in kilometers,
// rounded to 2 decimal places.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// clamp against floating point drift past 1
	a = math.Min(1, a)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(EarthRadiusKm*c*100) / 100
}

// BetweenWaypoints returns the great-circle distance between two waypoints in kilometers
func BetweenWaypoints(a, b models.Waypoint) float64 {
	return DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// FallbackLegs estimates one leg per consecutive waypoint pair
func FallbackLegs(waypoints []models.Waypoint) []models.Leg {
	if len(waypoints) < 2 {
		return []models.Leg{}
	}

	legs := make([]models.Leg, len(waypoints)-1)
	for i := 0; i < len(waypoints)-1; i++ {
		legs[i] = models.Leg{DistanceMeters: 1000 * BetweenWaypoints(waypoints[i], waypoints[i+1])}
	}
	return legs
}

// TotalKm sums leg distances in kilometers
func TotalKm(legs []models.Leg) float64 {
	var meters float64
	for _, leg := range legs {
		meters += leg.DistanceMeters
	}
	return meters / 1000
}

// WaypointPath returns the waypoints as [lat, lng] pairs in order
func WaypointPath(waypoints []models.Waypoint) [][2]float64 {
	path := make([][2]float64, len(waypoints))
	for i, w := range waypoints {
		path[i] = [2]float64{w.Latitude, w.Longitude}
	}
	return path
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
