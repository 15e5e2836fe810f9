// Package survey turns raw field-visit records into route waypoints.
package survey

import (
	"math"

	"field-survey-router/internal/models"
)

// NormalizeWaypoints returns the usable waypoints of one trip in input order.
// Records without a finite, non-zero latitude and longitude are dropped.
func NormalizeWaypoints(records []models.SurveyRecord, tripID string) []models.Waypoint {
	waypoints := []models.Waypoint{}
	for _, r := range records {
		if r.TourID != tripID {
			continue
		}
		if w, ok := toWaypoint(r); ok {
			waypoints = append(waypoints, w)
		}
	}
	return waypoints
}

// GroupByTrip normalizes records for every trip in one pass
func GroupByTrip(records []models.SurveyRecord) map[string][]models.Waypoint {
	byTrip := make(map[string][]models.Waypoint)
	for _, r := range records {
		if r.TourID == "" {
			continue
		}
		if _, seen := byTrip[r.TourID]; !seen {
			byTrip[r.TourID] = []models.Waypoint{}
		}
		if w, ok := toWaypoint(r); ok {
			byTrip[r.TourID] = append(byTrip[r.TourID], w)
		}
	}
	return byTrip
}

// TotalExpenses sums the expense amounts recorded against a trip
func TotalExpenses(expenses []models.ExpenseRecord, tripID string) float64 {
	var total float64
	for _, e := range expenses {
		if e.TourID == tripID {
			total += e.Amount
		}
	}
	return total
}

func toWaypoint(r models.SurveyRecord) (models.Waypoint, bool) {
	if r.LatLong == nil || !usable(r.LatLong.Latitude) || !usable(r.LatLong.Longitude) {
		return models.Waypoint{}, false
	}

	label := r.ShopName
	if label == "" {
		label = r.Location
	}

	return models.Waypoint{
		ID:         r.ID,
		Latitude:   *r.LatLong.Latitude,
		Longitude:  *r.LatLong.Longitude,
		Label:      label,
		PersonName: r.Name,
	}, true
}

func usable(v *float64) bool {
	return v != nil && *v != 0 && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
