package models

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// Signature fingerprints an ordered waypoint list by count and rounded coordinates.
// A cached route is reused only when its signature matches the current waypoints.
func Signature(waypoints []Waypoint) string {
	h := fnv.New64a()
	for _, w := range waypoints {
		h.Write([]byte(strconv.FormatFloat(RoundCoordinate(w.Latitude), 'f', 5, 64)))
		h.Write([]byte{','})
		h.Write([]byte(strconv.FormatFloat(RoundCoordinate(w.Longitude), 'f', 5, 64)))
		h.Write([]byte{';'})
	}
	return fmt.Sprintf("%d:%016x", len(waypoints), h.Sum64())
}
