package routing

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"field-survey-router/internal/distance"
	"field-survey-router/internal/models"
)

// FormatKm renders a distance in meters as kilometers with 2 decimals
func FormatKm(meters float64) string {
	return fmt.Sprintf("%.2f km", meters/1000)
}

// BuildView assembles the renderable route for a trip: the stop list, the
// path with its encoded polyline, per-leg labels and the total distance.
// A missing result renders as a straight line between the stops.
func BuildView(tripID string, waypoints []models.Waypoint, result *models.RouteResult) models.RouteView {
	view := models.RouteView{
		TripID: tripID,
		Source: models.RouteSourceFallback,
		Stops:  make([]models.StopView, len(waypoints)),
		Legs:   []models.LegView{},
	}

	for i, w := range waypoints {
		view.Stops[i] = models.StopView{
			Order:      i + 1,
			Label:      w.DisplayLabel(i),
			PersonName: w.PersonName,
			Lat:        w.Latitude,
			Lng:        w.Longitude,
		}
	}

	var legs []models.Leg
	if result != nil {
		view.Source = result.Source
		view.Path = result.Path
		legs = result.Legs
	}
	if view.Path == nil {
		view.Path = distance.WaypointPath(waypoints)
	}
	if len(legs) == 0 && len(waypoints) >= 2 {
		legs = distance.FallbackLegs(waypoints)
	}

	for _, leg := range legs {
		view.Legs = append(view.Legs, models.LegView{
			DistanceMeters: leg.DistanceMeters,
			Label:          FormatKm(leg.DistanceMeters),
		})
		view.TotalDistanceMeters += leg.DistanceMeters
	}
	view.TotalDistance = FormatKm(view.TotalDistanceMeters)
	view.EncodedPolyline = encodePath(view.Path)

	return view
}

func encodePath(path [][2]float64) string {
	if len(path) == 0 {
		return ""
	}
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p[0], p[1]}
	}
	return string(polyline.EncodeCoords(coords))
}
