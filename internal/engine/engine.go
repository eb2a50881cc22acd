// Package engine is the relief matching and allocation core: it resolves
// disaster reports, matches victim requests to hubs, and owns the
// donation/request lifecycles and hub inventory mutations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/reliefgrid/relief-engine/internal/gazetteer"
	"github.com/reliefgrid/relief-engine/internal/geo"
	"github.com/reliefgrid/relief-engine/internal/match"
	"github.com/reliefgrid/relief-engine/internal/models"
	"github.com/reliefgrid/relief-engine/internal/observability"
	"github.com/reliefgrid/relief-engine/internal/repository"
)

const defaultMatchRadiusKM = 100

type Engine struct {
	store    repository.Store
	resolver gazetteer.Resolver
	metrics  *observability.Metrics
	clock    clockwork.Clock
	radiusKM float64
	hubLocks *keyedLocks
}

// Options tune the engine; zero values fall back to defaults.
type Options struct {
	MatchRadiusKM float64
	Clock         clockwork.Clock
}

func New(store repository.Store, resolver gazetteer.Resolver, metrics *observability.Metrics, opts Options) *Engine {
	if opts.MatchRadiusKM <= 0 {
		opts.MatchRadiusKM = defaultMatchRadiusKM
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Engine{
		store:    store,
		resolver: resolver,
		metrics:  metrics,
		clock:    opts.Clock,
		radiusKM: opts.MatchRadiusKM,
		hubLocks: newKeyedLocks(),
	}
}

// NearbyHub is a hub with its distance from a query point, rounded to
// the documented one-decimal precision.
type NearbyHub struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LocationName string  `json:"location_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DistanceKM   float64 `json:"distance_km"`
}

// Prediction is the result of resolving a free-text disaster report.
type Prediction struct {
	Event      models.DisasterEvent
	NearbyHubs []NearbyHub
}

// PredictLocation resolves report text, records the disaster event, and
// returns hubs within the match radius ordered by distance.
func (e *Engine) PredictLocation(ctx context.Context, text string) (*Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: report text is required", models.ErrValidation)
	}

	res, err := e.resolver.Resolve(text)
	if err != nil {
		e.metrics.PredictRequests.WithLabelValues("not_found").Inc()
		return nil, err
	}
	e.metrics.PredictRequests.WithLabelValues("resolved").Inc()

	event := models.DisasterEvent{
		ID:           uuid.NewString(),
		SourceText:   text,
		LocationName: res.LocationName,
		Latitude:     res.Latitude,
		Longitude:    res.Longitude,
		DisasterType: res.DisasterType,
		Severity:     res.Severity,
		CreatedAt:    e.clock.Now().UTC(),
	}
	if err := e.store.AddEvent(ctx, &event); err != nil {
		return nil, err
	}

	nearby, err := e.nearbyHubs(ctx, event.Coordinates())
	if err != nil {
		return nil, err
	}

	slog.Info("resolved disaster report",
		"event_id", event.ID,
		"location", event.LocationName,
		"type", event.DisasterType,
		"severity", event.Severity,
		"nearby_hubs", len(nearby),
	)
	return &Prediction{Event: event, NearbyHubs: nearby}, nil
}

func (e *Engine) nearbyHubs(ctx context.Context, point models.Coordinates) ([]NearbyHub, error) {
	hubs, err := e.store.ListHubs(ctx)
	if err != nil {
		return nil, err
	}

	candidates := geo.Nearby(hubs, point, e.radiusKM, 0)
	out := make([]NearbyHub, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, NearbyHub{
			ID:           c.Hub.ID,
			Name:         c.Hub.Name,
			LocationName: c.Hub.LocationName,
			Latitude:     c.Hub.Latitude,
			Longitude:    c.Hub.Longitude,
			DistanceKM:   geo.RoundKM(c.DistanceKM),
		})
	}
	return out, nil
}

type DonationInput struct {
	DonorName  string
	DonorEmail string
	DonorPhone string
	Amount     float64
	Items      map[string]int
	Notes      string
}

func (e *Engine) CreateDonation(ctx context.Context, in DonationInput) (*models.Donation, error) {
	if strings.TrimSpace(in.DonorName) == "" {
		return nil, fmt.Errorf("%w: donor_name is required", models.ErrValidation)
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", models.ErrValidation)
	}
	if err := models.ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if in.Amount == 0 && len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: donation needs an amount or at least one item", models.ErrValidation)
	}

	d := &models.Donation{
		ID:             uuid.NewString(),
		DonorName:      in.DonorName,
		DonorEmail:     in.DonorEmail,
		DonorPhone:     in.DonorPhone,
		Amount:         in.Amount,
		Items:          in.Items,
		Notes:          in.Notes,
		TrackingStatus: models.TrackingPending,
		TrackingNotes:  []models.TrackingNote{},
		CreatedAt:      e.clock.Now().UTC(),
	}
	if d.Items == nil {
		d.Items = map[string]int{}
	}
	if err := e.store.AddDonation(ctx, d); err != nil {
		return nil, err
	}
	d.AllocatedStatus = d.TrackingStatus.AllocatedView()

	e.metrics.DonationsCreated.Inc()
	slog.Info("donation recorded", "donation_id", d.ID, "donor", d.DonorName, "amount", d.Amount)
	return d, nil
}

func (e *Engine) ListDonations(ctx context.Context) ([]models.Donation, error) {
	return e.store.ListDonations(ctx)
}

type RequestInput struct {
	VictimName     string
	VictimPhone    string
	LocationName   string
	Urgency        models.Urgency
	RequestedItems map[string]int
	Notes          string
}

// MatchedHub describes the hub selected for a victim request.
type MatchedHub struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LocationName string  `json:"location_name"`
	DistanceKM   float64 `json:"distance_km"`
	MatchScore   int     `json:"match_score"`
}

// CreateVictimRequest persists a request and synchronously matches it to
// the best-scoring hub within the cutoff radius. No hub nearby is not an
// error; the request stays pending and unmatched.
func (e *Engine) CreateVictimRequest(ctx context.Context, in RequestInput) (*models.VictimRequest, *MatchedHub, error) {
	if strings.TrimSpace(in.VictimName) == "" {
		return nil, nil, fmt.Errorf("%w: victim_name is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.VictimPhone) == "" {
		return nil, nil, fmt.Errorf("%w: victim_phone is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.LocationName) == "" {
		return nil, nil, fmt.Errorf("%w: location_name is required", models.ErrValidation)
	}
	if in.Urgency == "" {
		in.Urgency = models.UrgencyMedium
	}
	if !in.Urgency.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown urgency %q", models.ErrValidation, in.Urgency)
	}
	if err := models.ValidateItems(in.RequestedItems); err != nil {
		return nil, nil, err
	}
	if len(in.RequestedItems) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one requested item is required", models.ErrValidation)
	}

	place, err := e.resolver.ResolvePlace(in.LocationName)
	if err != nil {
		return nil, nil, err
	}

	r := &models.VictimRequest{
		ID:              uuid.NewString(),
		VictimName:      in.VictimName,
		VictimPhone:     in.VictimPhone,
		LocationName:    place.Name,
		Latitude:        place.Latitude,
		Longitude:       place.Longitude,
		Urgency:         in.Urgency,
		RequestedItems:  in.RequestedItems,
		Notes:           in.Notes,
		FulfilledStatus: models.FulfilledPending,
		CreatedAt:       e.clock.Now().UTC(),
	}

	matched, err := e.matchRequest(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	if err := e.store.AddRequest(ctx, r); err != nil {
		return nil, nil, err
	}

	e.metrics.RequestsCreated.Inc()
	if matched != nil {
		e.metrics.RequestsMatched.Inc()
		e.metrics.MatchScore.Observe(float64(matched.MatchScore))
		slog.Info("victim request matched",
			"request_id", r.ID,
			"hub_id", matched.ID,
			"score", matched.MatchScore,
			"distance_km", matched.DistanceKM,
		)
	} else {
		slog.Info("victim request unmatched, no hub within radius",
			"request_id", r.ID,
			"location", r.LocationName,
		)
	}
	return r, matched, nil
}

// matchRequest selects the best hub for r and mutates its matched fields.
// Candidates arrive sorted by distance then ID, so keeping the first
// strictly-better score resolves ties toward the nearer, smaller-ID hub.
func (e *Engine) matchRequest(ctx context.Context, r *models.VictimRequest) (*MatchedHub, error) {
	hubs, err := e.store.ListHubs(ctx)
	if err != nil {
		return nil, err
	}

	candidates := geo.Nearby(hubs, r.Coordinates(), e.radiusKM, 0)
	if len(candidates) == 0 {
		return nil, nil
	}

	var best *MatchedHub
	for _, c := range candidates {
		score := match.Score(r.RequestedItems, c.Hub.Inventory, c.DistanceKM)
		if best == nil || score > best.MatchScore {
			best = &MatchedHub{
				ID:           c.Hub.ID,
				Name:         c.Hub.Name,
				LocationName: c.Hub.LocationName,
				DistanceKM:   geo.RoundKM(c.DistanceKM),
				MatchScore:   score,
			}
		}
	}

	r.MatchedHubID = &best.ID
	r.MatchScore = &best.MatchScore
	return best, nil
}

func (e *Engine) ListRequests(ctx context.Context) ([]models.VictimRequest, error) {
	return e.store.ListRequests(ctx)
}

// UpdateRequestStatus advances a victim request along its forward-only
// lifecycle.
func (e *Engine) UpdateRequestStatus(ctx context.Context, id string, next models.FulfilledStatus) (*models.VictimRequest, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, next)
	}

	r, err := e.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.FulfilledStatus.CanAdvanceTo(next) {
		return nil, fmt.Errorf("cannot move request from %s to %s: %w",
			r.FulfilledStatus, next, models.ErrInvalidTransition)
	}
	if err := e.store.UpdateRequestStatus(ctx, id, r.FulfilledStatus, next); err != nil {
		return nil, err
	}

	slog.Info("victim request status updated", "request_id", id, "status", next)
	return e.store.GetRequest(ctx, id)
}

// TrackingUpdate is one donation lifecycle advance. Override bypasses
// the forward-only check; the override is always audited in the note
// history.
type TrackingUpdate struct {
	Status   models.TrackingStatus
	Note     string
	HubID    string
	Override bool
}

// UpdateDonationTracking advances a donation's tracking status. A
// transition into allocated requires a hub and atomically debits the
// donation's items from that hub's inventory.
func (e *Engine) UpdateDonationTracking(ctx context.Context, id string, upd TrackingUpdate) (*models.Donation, error) {
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown tracking_status %q", models.ErrValidation, upd.Status)
	}

	d, err := e.store.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !upd.Override && !d.TrackingStatus.CanAdvanceTo(upd.Status) {
		return nil, fmt.Errorf("cannot move donation from %s to %s: %w",
			d.TrackingStatus, upd.Status, models.ErrInvalidTransition)
	}

	note := models.TrackingNote{
		CreatedAt: e.clock.Now().UTC(),
		Note:      trackingNoteText(d.TrackingStatus, upd),
	}

	if upd.Status == models.TrackingAllocated {
		if strings.TrimSpace(upd.HubID) == "" {
			return nil, fmt.Errorf("%w: hub_id is required to allocate a donation", models.ErrValidation)
		}

		unlock := e.hubLocks.lock(upd.HubID)
		err = e.store.AllocateDonation(ctx, id, d.TrackingStatus, upd.HubID, d.Items, note)
		unlock()

		switch {
		case errors.Is(err, models.ErrInsufficientInventory):
			e.metrics.Allocations.WithLabelValues("insufficient").Inc()
			return nil, err
		case errors.Is(err, models.ErrInvalidTransition):
			e.metrics.Allocations.WithLabelValues("invalid").Inc()
			return nil, err
		case err != nil:
			return nil, err
		}
		e.metrics.Allocations.WithLabelValues("committed").Inc()
		slog.Info("donation allocated", "donation_id", id, "hub_id", upd.HubID)
	} else {
		if err := e.store.UpdateDonationTracking(ctx, id, d.TrackingStatus, upd.Status, note); err != nil {
			return nil, err
		}
		slog.Info("donation tracking updated", "donation_id", id, "status", upd.Status, "override", upd.Override)
	}

	return e.store.GetDonation(ctx, id)
}

func trackingNoteText(from models.TrackingStatus, upd TrackingUpdate) string {
	text := fmt.Sprintf("status %s -> %s", from, upd.Status)
	if upd.Override {
		text = "admin override: " + text
	}
	if strings.TrimSpace(upd.Note) != "" {
		text += ": " + upd.Note
	}
	return text
}

type HubInput struct {
	Name         string
	LocationName string
	Contact      string
	Inventory    map[string]int
}

// AddHub registers a hub, resolving its coordinates from the location
// name through the gazetteer.
func (e *Engine) AddHub(ctx context.Context, in HubInput) (*models.Hub, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.LocationName) == "" {
		return nil, fmt.Errorf("%w: location_name is required", models.ErrValidation)
	}
	if err := models.ValidateItems(in.Inventory); err != nil {
		return nil, err
	}

	place, err := e.resolver.ResolvePlace(in.LocationName)
	if err != nil {
		return nil, err
	}

	h := &models.Hub{
		ID:           uuid.NewString(),
		Name:         in.Name,
		LocationName: place.Name,
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Contact:      in.Contact,
		Inventory:    in.Inventory,
		CreatedAt:    e.clock.Now().UTC(),
	}
	if h.Inventory == nil {
		h.Inventory = map[string]int{}
	}
	if err := e.store.AddHub(ctx, h); err != nil {
		return nil, err
	}

	slog.Info("hub added", "hub_id", h.ID, "name", h.Name, "location", h.LocationName)
	return h, nil
}

func (e *Engine) ListHubs(ctx context.Context) ([]models.Hub, error) {
	return e.store.ListHubs(ctx)
}

// DeleteHub removes a hub unless a non-terminal donation or request
// still references it.
func (e *Engine) DeleteHub(ctx context.Context, id string) error {
	unlock := e.hubLocks.lock(id)
	defer unlock()

	if _, err := e.store.GetHub(ctx, id); err != nil {
		return err
	}
	active, err := e.store.HasActiveAllocations(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("hub %s: %w", id, models.ErrActiveAllocations)
	}
	if err := e.store.DeleteHub(ctx, id); err != nil {
		return err
	}

	slog.Info("hub deleted", "hub_id", id)
	return nil
}

// Stats recomputes the dashboard counters from current store state.
func (e *Engine) Stats(ctx context.Context) (models.Stats, error) {
	return e.store.Stats(ctx)
}
