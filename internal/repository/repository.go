package repository

import (
	"context"

	"github.com/reliefgrid/relief-engine/internal/models"
)

type HubRepository interface {
	AddHub(ctx context.Context, h *models.Hub) error
	GetHub(ctx context.Context, id string) (*models.Hub, error)
	ListHubs(ctx context.Context) ([]models.Hub, error)
	DeleteHub(ctx context.Context, id string) error
	// HasActiveAllocations reports whether any non-terminal donation or
	// victim request still references the hub.
	HasActiveAllocations(ctx context.Context, hubID string) (bool, error)
}

type EventRepository interface {
	AddEvent(ctx context.Context, e *models.DisasterEvent) error
	ListEvents(ctx context.Context) ([]models.DisasterEvent, error)
}

type DonationRepository interface {
	AddDonation(ctx context.Context, d *models.Donation) error
	GetDonation(ctx context.Context, id string) (*models.Donation, error)
	ListDonations(ctx context.Context) ([]models.Donation, error)
	// UpdateDonationTracking advances tracking_status with a
	// compare-and-swap on expect and appends note to the donation's
	// history, all in one transaction. A CAS miss on an existing
	// donation returns models.ErrInvalidTransition.
	UpdateDonationTracking(ctx context.Context, id string, expect, next models.TrackingStatus, note models.TrackingNote) error
	// AllocateDonation assigns the hub, debits its inventory by items
	// (all-or-nothing), advances tracking_status from expect, and
	// appends note, all in one transaction. Any shortfall fails the
	// whole operation with models.ErrInsufficientInventory.
	AllocateDonation(ctx context.Context, id string, expect models.TrackingStatus, hubID string, items map[string]int, note models.TrackingNote) error
}

type RequestRepository interface {
	AddRequest(ctx context.Context, r *models.VictimRequest) error
	GetRequest(ctx context.Context, id string) (*models.VictimRequest, error)
	ListRequests(ctx context.Context) ([]models.VictimRequest, error)
	// UpdateRequestStatus CAS-advances fulfilled_status from expect.
	UpdateRequestStatus(ctx context.Context, id string, expect, next models.FulfilledStatus) error
}

type StatsRepository interface {
	// Stats recomputes the dashboard counters from current store state.
	Stats(ctx context.Context) (models.Stats, error)
}

// Store is the full persistence surface the engine works against.
type Store interface {
	HubRepository
	EventRepository
	DonationRepository
	RequestRepository
	StatsRepository
}
