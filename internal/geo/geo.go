// Package geo answers radius queries over hub coordinates. Distances use
// the haversine formula on a spherical Earth (R = 6371 km), trading up to
// ~0.5% error versus an ellipsoidal model for simplicity. Queries scan
// all hubs; for a few thousand hubs this is fine, and a spatial grid or
// R-tree would be a performance change only, not a contract change.
package geo

import (
	"math"
	"sort"

	"github.com/reliefgrid/relief-engine/internal/models"
)

const earthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance between two points in
// kilometers.
func DistanceKM(a, b models.Coordinates) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180)*math.Cos(b.Latitude*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// RoundKM rounds a distance to one decimal place, the documented
// precision for distance_km on the wire.
func RoundKM(d float64) float64 {
	return math.Round(d*10) / 10
}

// Candidate pairs a hub with its recomputed distance from the query point.
type Candidate struct {
	Hub        models.Hub
	DistanceKM float64
}

// Nearby returns hubs within radiusKM of point, ascending by distance,
// ties broken by hub ID for determinism. max <= 0 means unlimited.
// Distances are computed fresh on every call, never cached.
func Nearby(hubs []models.Hub, point models.Coordinates, radiusKM float64, max int) []Candidate {
	candidates := make([]Candidate, 0, len(hubs))
	for _, h := range hubs {
		d := DistanceKM(point, h.Coordinates())
		if d <= radiusKM {
			candidates = append(candidates, Candidate{Hub: h, DistanceKM: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKM != candidates[j].DistanceKM {
			return candidates[i].DistanceKM < candidates[j].DistanceKM
		}
		return candidates[i].Hub.ID < candidates[j].Hub.ID
	})

	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates
}
