// Package gazetteer resolves free-text disaster reports to a known
// place, disaster type, and severity using fixed in-memory keyword
// tables. Resolution is deterministic and performs no network I/O, so a
// learned model can replace it later behind the same interface.
package gazetteer

import (
	"fmt"
	"strings"

	"github.com/reliefgrid/relief-engine/internal/models"
)

// Result is a fully resolved report.
type Result struct {
	LocationName string
	Latitude     float64
	Longitude    float64
	DisasterType models.DisasterType
	Severity     models.Severity
}

// Place is a bare gazetteer entry, used when only coordinates for a
// location name are needed (hub registration, victim requests).
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Resolver is the pluggable text-to-location capability.
type Resolver interface {
	// Resolve returns models.ErrNotFound when no known place name
	// appears in the text. It never fabricates coordinates.
	Resolve(text string) (Result, error)
	// ResolvePlace resolves a location string to coordinates only.
	ResolvePlace(text string) (Place, error)
}

type place struct {
	keyword string // matched case-insensitively as a substring
	name    string
	lat     float64
	lon     float64
}

// The place table is ordered; when two keywords appear at the same text
// offset the earlier table entry wins, keeping resolution deterministic.
var places = []place{
	{"tokyo", "Tokyo", 35.6762, 139.6503},
	{"osaka", "Osaka", 34.6937, 135.5023},
	{"sendai", "Sendai", 38.2682, 140.8694},
	{"kobe", "Kobe", 34.6901, 135.1956},
	{"yokohama", "Yokohama", 35.4437, 139.6380},
	{"mumbai", "Mumbai", 19.0760, 72.8777},
	{"delhi", "Delhi", 28.7041, 77.1025},
	{"chennai", "Chennai", 13.0827, 80.2707},
	{"dhaka", "Dhaka", 23.8103, 90.4125},
	{"kathmandu", "Kathmandu", 27.7172, 85.3240},
	{"manila", "Manila", 14.5995, 120.9842},
	{"jakarta", "Jakarta", -6.2088, 106.8456},
	{"istanbul", "Istanbul", 41.0082, 28.9784},
	{"florida", "Florida", 27.9944, -81.7603},
	{"miami", "Miami", 25.7617, -80.1918},
	{"new orleans", "New Orleans", 29.9511, -90.0715},
	{"houston", "Houston", 29.7604, -95.3698},
	{"california", "California", 36.7783, -119.4179},
	{"los angeles", "Los Angeles", 34.0522, -118.2437},
	{"san francisco", "San Francisco", 37.7749, -122.4194},
	{"new york", "New York", 40.7128, -74.0060},
	{"mexico city", "Mexico City", 19.4326, -99.1332},
	{"santiago", "Santiago", -33.4489, -70.6693},
	{"port-au-prince", "Port-au-Prince", 18.5944, -72.3074},
}

// Disaster-type keywords, checked in order. Hurricane covers cyclone and
// typhoon naming; wildfire covers plain "fire" last so "fire" inside
// other words does not shadow more specific matches.
var typeKeywords = []struct {
	keyword string
	dtype   models.DisasterType
}{
	{"earthquake", models.DisasterTypeEarthquake},
	{"quake", models.DisasterTypeEarthquake},
	{"tremor", models.DisasterTypeEarthquake},
	{"seismic", models.DisasterTypeEarthquake},
	{"tsunami", models.DisasterTypeEarthquake},
	{"flooding", models.DisasterTypeFlood},
	{"flood", models.DisasterTypeFlood},
	{"monsoon", models.DisasterTypeFlood},
	{"deluge", models.DisasterTypeFlood},
	{"hurricane", models.DisasterTypeHurricane},
	{"cyclone", models.DisasterTypeHurricane},
	{"typhoon", models.DisasterTypeHurricane},
	{"storm surge", models.DisasterTypeHurricane},
	{"wildfire", models.DisasterTypeWildfire},
	{"bushfire", models.DisasterTypeWildfire},
	{"fire", models.DisasterTypeWildfire},
}

// Severity cues, strongest first. The first matching tier wins; no cue
// defaults to medium.
var severityCues = []struct {
	severity models.Severity
	cues     []string
}{
	{models.SeverityCritical, []string{"catastrophic", "devastat", "death toll", "collapsed", "thousands dead", "state of emergency"}},
	{models.SeverityHigh, []string{"widespread damage", "severe", "massive", "major", "destroyed", "evacuat"}},
	{models.SeverityLow, []string{"minor", "small", "slight", "light damage"}},
}

// Static is the fixed-table Resolver implementation.
type Static struct{}

func NewStatic() *Static { return &Static{} }

func (s *Static) Resolve(text string) (Result, error) {
	p, err := s.ResolvePlace(text)
	if err != nil {
		return Result{}, err
	}

	lower := strings.ToLower(text)
	return Result{
		LocationName: p.Name,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		DisasterType: detectType(lower),
		Severity:     detectSeverity(lower),
	}, nil
}

func (s *Static) ResolvePlace(text string) (Place, error) {
	lower := strings.ToLower(text)

	bestIdx := -1
	var best place
	for _, p := range places {
		idx := strings.Index(lower, p.keyword)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx {
			bestIdx = idx
			best = p
		}
	}
	if bestIdx == -1 {
		return Place{}, fmt.Errorf("no known place in report text: %w", models.ErrNotFound)
	}
	return Place{Name: best.name, Latitude: best.lat, Longitude: best.lon}, nil
}

func detectType(lower string) models.DisasterType {
	for _, tk := range typeKeywords {
		if strings.Contains(lower, tk.keyword) {
			return tk.dtype
		}
	}
	return models.DisasterTypeOther
}

func detectSeverity(lower string) models.Severity {
	for _, tier := range severityCues {
		for _, cue := range tier.cues {
			if strings.Contains(lower, cue) {
				return tier.severity
			}
		}
	}
	return models.SeverityMedium
}
