package models

import "time"

// Urgency shares the severity vocabulary but is a distinct field on
// victim requests.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type FulfilledStatus string

const (
	FulfilledPending    FulfilledStatus = "pending"
	FulfilledInProgress FulfilledStatus = "in_progress"
	FulfilledDone       FulfilledStatus = "fulfilled"
)

var fulfilledStage = map[FulfilledStatus]int{
	FulfilledPending:    0,
	FulfilledInProgress: 1,
	FulfilledDone:       2,
}

func (s FulfilledStatus) Valid() bool {
	_, ok := fulfilledStage[s]
	return ok
}

// CanAdvanceTo applies the same forward-only rule as donation tracking:
// advance by one stage, or skip a single stage.
func (s FulfilledStatus) CanAdvanceTo(next FulfilledStatus) bool {
	from, ok := fulfilledStage[s]
	if !ok {
		return false
	}
	to, ok := fulfilledStage[next]
	if !ok {
		return false
	}
	step := to - from
	return step == 1 || step == 2
}

type VictimRequest struct {
	ID              string          `json:"id"`
	VictimName      string          `json:"victim_name"`
	VictimPhone     string          `json:"victim_phone"`
	LocationName    string          `json:"location_name"`
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	Urgency         Urgency         `json:"urgency"`
	RequestedItems  map[string]int  `json:"requested_items"`
	Notes           string          `json:"notes,omitempty"`
	FulfilledStatus FulfilledStatus `json:"fulfilled_status"`
	MatchedHubID    *string         `json:"matched_hub_id,omitempty"`
	MatchScore      *int            `json:"match_score,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (r *VictimRequest) Coordinates() Coordinates {
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Stats is the dashboard projection recomputed on every call.
type Stats struct {
	TotalHubs      int `json:"total_hubs"`
	TotalDonations int `json:"total_donations"`
	TotalRequests  int `json:"total_requests"`
	TotalEvents    int `json:"total_events"`
}
