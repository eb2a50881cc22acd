package models

import "time"

// TrackingStatus is the authoritative donation lifecycle field. The
// pipeline is strictly forward-only; see CanAdvanceTo.
type TrackingStatus string

const (
	TrackingPending   TrackingStatus = "pending"
	TrackingAllocated TrackingStatus = "allocated"
	TrackingPickup    TrackingStatus = "pickup"
	TrackingInTransit TrackingStatus = "in_transit"
	TrackingDelivered TrackingStatus = "delivered"
	TrackingFulfilled TrackingStatus = "fulfilled"
)

// trackingStage is the exhaustive pipeline order. Transition checks index
// into this table instead of comparing strings ad hoc.
var trackingStage = map[TrackingStatus]int{
	TrackingPending:   0,
	TrackingAllocated: 1,
	TrackingPickup:    2,
	TrackingInTransit: 3,
	TrackingDelivered: 4,
	TrackingFulfilled: 5,
}

func (s TrackingStatus) Valid() bool {
	_, ok := trackingStage[s]
	return ok
}

// CanAdvanceTo reports whether a normal (non-override) transition from s
// to next is legal: forward by one stage, or forward by two (skipping a
// single stage). Backward moves, lateral moves, and wider jumps require
// the audited admin override.
func (s TrackingStatus) CanAdvanceTo(next TrackingStatus) bool {
	from, ok := trackingStage[s]
	if !ok {
		return false
	}
	to, ok := trackingStage[next]
	if !ok {
		return false
	}
	step := to - from
	return step == 1 || step == 2
}

// AllocatedStatus is the legacy coarse view some consumers still read.
// It is derived from TrackingStatus and never stored.
type AllocatedStatus string

const (
	AllocatedPending   AllocatedStatus = "pending"
	AllocatedAllocated AllocatedStatus = "allocated"
	AllocatedFulfilled AllocatedStatus = "fulfilled"
)

// AllocatedView collapses the six-stage pipeline into the legacy
// three-value vocabulary.
func (s TrackingStatus) AllocatedView() AllocatedStatus {
	switch s {
	case TrackingPending:
		return AllocatedPending
	case TrackingDelivered, TrackingFulfilled:
		return AllocatedFulfilled
	default:
		return AllocatedAllocated
	}
}

// TrackingNote is one entry in a donation's append-only note history.
type TrackingNote struct {
	CreatedAt time.Time `json:"created_at"`
	Note      string    `json:"note"`
}

type Donation struct {
	ID             string          `json:"id"`
	DonorName      string          `json:"donor_name"`
	DonorEmail     string          `json:"donor_email,omitempty"`
	DonorPhone     string          `json:"donor_phone,omitempty"`
	Amount         float64         `json:"amount"`
	Items          map[string]int  `json:"items"`
	Notes          string          `json:"notes,omitempty"`
	TrackingStatus TrackingStatus  `json:"tracking_status"`
	AssignedHubID  *string         `json:"assigned_hub_id,omitempty"`
	TrackingNotes  []TrackingNote  `json:"tracking_notes"`
	CreatedAt      time.Time       `json:"created_at"`

	// Derived legacy field, populated at serialization time.
	AllocatedStatus AllocatedStatus `json:"allocated_status"`
}
