// Package match scores how well a hub can serve a victim request.
//
// The score combines item coverage (weight 0.6) with proximity
// (weight 0.4, linear decay to zero at 100 km). The weights are policy,
// chosen so that what a hub can actually supply outranks how close it
// is. More coverage or less distance never lowers the score.
package match

import "math"

const (
	coverageWeight    = 0.6
	proximityWeight   = 0.4
	proximityCutoffKM = 100.0
)

// Score returns an integer in [0,100]. An empty request has full
// coverage; a hub beyond the cutoff earns no proximity credit but can
// still score on coverage alone.
func Score(requested map[string]int, inventory map[string]int, distanceKM float64) int {
	combined := coverageWeight*Coverage(requested, inventory) + proximityWeight*Proximity(distanceKM)
	s := int(math.Round(100 * combined))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Coverage is the fraction of distinct requested item names the hub
// fully covers (stocked quantity >= requested quantity). Each item
// contributes equally regardless of quantity.
func Coverage(requested map[string]int, inventory map[string]int) float64 {
	if len(requested) == 0 {
		return 1
	}
	covered := 0
	for name, qty := range requested {
		if inventory[name] >= qty {
			covered++
		}
	}
	return float64(covered) / float64(len(requested))
}

// Proximity decays linearly from 1 at zero distance to 0 at the cutoff.
func Proximity(distanceKM float64) float64 {
	return math.Max(0, 1-distanceKM/proximityCutoffKM)
}
