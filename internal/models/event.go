package models

import "time"

type DisasterType string

const (
	DisasterTypeEarthquake DisasterType = "earthquake"
	DisasterTypeFlood      DisasterType = "flood"
	DisasterTypeHurricane  DisasterType = "hurricane"
	DisasterTypeWildfire   DisasterType = "wildfire"
	DisasterTypeOther      DisasterType = "other"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of s (low < medium < high < critical),
// or -1 for an unknown value.
func (s Severity) Rank() int {
	r, ok := severityRank[s]
	if !ok {
		return -1
	}
	return r
}

func (s Severity) Valid() bool { return s.Rank() >= 0 }

// DisasterEvent is one resolved free-text report. Events are immutable
// once created; the events table is an append-only log.
type DisasterEvent struct {
	ID           string       `json:"id"`
	SourceText   string       `json:"source_text"`
	LocationName string       `json:"location_name"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	DisasterType DisasterType `json:"disaster_type"`
	Severity     Severity     `json:"severity"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (e *DisasterEvent) Coordinates() Coordinates {
	return Coordinates{Latitude: e.Latitude, Longitude: e.Longitude}
}
