package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reliefgrid/relief-engine/internal/engine"
	"github.com/reliefgrid/relief-engine/internal/models"
)

const testAdminKey = "test-admin-key"

// mockService implements Service with in-memory state.
type mockService struct {
	hubs      []models.Hub
	donations []models.Donation
	requests  []models.VictimRequest

	predictErr  error
	allocateErr error
	deleteErr   error
}

func (m *mockService) PredictLocation(ctx context.Context, text string) (*engine.Prediction, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	return &engine.Prediction{
		Event: models.DisasterEvent{
			ID:           "evt-1",
			SourceText:   text,
			LocationName: "Tokyo",
			Latitude:     35.6762,
			Longitude:    139.6503,
			DisasterType: models.DisasterTypeEarthquake,
			Severity:     models.SeverityHigh,
			CreatedAt:    time.Now(),
		},
		NearbyHubs: []engine.NearbyHub{
			{ID: "hub-1", Name: "Tokyo Central", LocationName: "Tokyo", DistanceKM: 2.5},
		},
	}, nil
}

func (m *mockService) CreateDonation(ctx context.Context, in engine.DonationInput) (*models.Donation, error) {
	if in.DonorName == "" {
		return nil, fmt.Errorf("%w: donor_name is required", models.ErrValidation)
	}
	d := models.Donation{
		ID:              fmt.Sprintf("don-%d", len(m.donations)+1),
		DonorName:       in.DonorName,
		Amount:          in.Amount,
		Items:           in.Items,
		TrackingStatus:  models.TrackingPending,
		AllocatedStatus: models.AllocatedPending,
	}
	m.donations = append(m.donations, d)
	return &d, nil
}

func (m *mockService) ListDonations(ctx context.Context) ([]models.Donation, error) {
	return m.donations, nil
}

func (m *mockService) CreateVictimRequest(ctx context.Context, in engine.RequestInput) (*models.VictimRequest, *engine.MatchedHub, error) {
	if in.VictimName == "" {
		return nil, nil, fmt.Errorf("%w: victim_name is required", models.ErrValidation)
	}
	hubID := "hub-1"
	score := 85
	r := models.VictimRequest{
		ID:              fmt.Sprintf("req-%d", len(m.requests)+1),
		VictimName:      in.VictimName,
		LocationName:    in.LocationName,
		RequestedItems:  in.RequestedItems,
		FulfilledStatus: models.FulfilledPending,
		MatchedHubID:    &hubID,
		MatchScore:      &score,
	}
	m.requests = append(m.requests, r)
	return &r, &engine.MatchedHub{ID: hubID, Name: "Tokyo Central", MatchScore: score}, nil
}

func (m *mockService) ListRequests(ctx context.Context) ([]models.VictimRequest, error) {
	return m.requests, nil
}

func (m *mockService) UpdateRequestStatus(ctx context.Context, id string, next models.FulfilledStatus) (*models.VictimRequest, error) {
	for i := range m.requests {
		if m.requests[i].ID == id {
			if !m.requests[i].FulfilledStatus.CanAdvanceTo(next) {
				return nil, models.ErrInvalidTransition
			}
			m.requests[i].FulfilledStatus = next
			return &m.requests[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockService) UpdateDonationTracking(ctx context.Context, id string, upd engine.TrackingUpdate) (*models.Donation, error) {
	if m.allocateErr != nil {
		return nil, m.allocateErr
	}
	for i := range m.donations {
		if m.donations[i].ID == id {
			m.donations[i].TrackingStatus = upd.Status
			m.donations[i].AllocatedStatus = upd.Status.AllocatedView()
			return &m.donations[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockService) AddHub(ctx context.Context, in engine.HubInput) (*models.Hub, error) {
	if in.LocationName == "Atlantis" {
		return nil, fmt.Errorf("no known place: %w", models.ErrNotFound)
	}
	h := models.Hub{
		ID:           fmt.Sprintf("hub-%d", len(m.hubs)+1),
		Name:         in.Name,
		LocationName: in.LocationName,
		Inventory:    in.Inventory,
	}
	m.hubs = append(m.hubs, h)
	return &h, nil
}

func (m *mockService) ListHubs(ctx context.Context) ([]models.Hub, error) {
	return m.hubs, nil
}

func (m *mockService) DeleteHub(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *mockService) Stats(ctx context.Context) (models.Stats, error) {
	return models.Stats{
		TotalHubs:      len(m.hubs),
		TotalDonations: len(m.donations),
		TotalRequests:  len(m.requests),
		TotalEvents:    3,
	}, nil
}

func setupTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(svc, testAdminKey)
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, adminKey string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestPredictLocation(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/predict-location", gin.H{"tweet": "Earthquake in Tokyo"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success          bool   `json:"success"`
		DetectedLocation string `json:"detected_location"`
		DisasterType     string `json:"disaster_type"`
		Severity         string `json:"severity"`
		NearbyHubs       []struct {
			Name       string  `json:"name"`
			DistanceKM float64 `json:"distance_km"`
		} `json:"nearby_hubs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.Success || resp.DetectedLocation != "Tokyo" || resp.DisasterType != "earthquake" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.NearbyHubs) != 1 || resp.NearbyHubs[0].Name != "Tokyo Central" {
		t.Errorf("unexpected nearby hubs: %+v", resp.NearbyHubs)
	}
}

func TestPredictLocation_UnknownPlace(t *testing.T) {
	svc := &mockService{predictErr: fmt.Errorf("no known place in report text: %w", models.ErrNotFound)}
	router := setupTestRouter(svc)

	w := doJSON(t, router, "POST", "/api/predict-location", gin.H{"tweet": "something happened"}, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != false {
		t.Errorf("expected success false, got %v", resp["success"])
	}
}

func TestCreateDonation(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/donations", gin.H{
		"donor_name": "Aiko Tanaka",
		"amount":     100,
		"items":      gin.H{"Water": 20},
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool            `json:"success"`
		Donation models.Donation `json:"donation"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Donation.TrackingStatus != models.TrackingPending {
		t.Errorf("expected pending, got %s", resp.Donation.TrackingStatus)
	}
	if resp.Donation.AllocatedStatus != models.AllocatedPending {
		t.Errorf("expected derived pending, got %s", resp.Donation.AllocatedStatus)
	}
}

func TestCreateDonation_ValidationError(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/donations", gin.H{"amount": 10}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestListDonations_EmptyEnvelope(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "GET", "/api/donations", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp map[string]json.RawMessage
	json.Unmarshal(w.Body.Bytes(), &resp)
	if string(resp["donations"]) != "[]" {
		t.Errorf("empty list must serialize as [], got %s", resp["donations"])
	}
}

func TestCreateVictimRequest(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/victim-requests", gin.H{
		"victim_name":   "Kenji Sato",
		"victim_phone":  "+81-90-0000-0000",
		"location_name": "Tokyo",
		"items":         gin.H{"Water": 10},
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool                 `json:"success"`
		Request    models.VictimRequest `json:"request"`
		MatchedHub *engine.MatchedHub   `json:"matched_hub"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.MatchedHub == nil || resp.MatchedHub.Name != "Tokyo Central" {
		t.Errorf("expected matched hub in response, got %+v", resp.MatchedHub)
	}
	if resp.Request.MatchScore == nil || *resp.Request.MatchScore != 85 {
		t.Error("match score missing from persisted request")
	}
}

func TestDashboardStats(t *testing.T) {
	svc := &mockService{hubs: []models.Hub{{ID: "hub-1"}}}
	router := setupTestRouter(svc)

	w := doJSON(t, router, "GET", "/api/dashboard/stats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Stats models.Stats `json:"stats"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Stats.TotalHubs != 1 || resp.Stats.TotalEvents != 3 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}
}

func TestAdminAuth(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/admin/auth", gin.H{"key": testAdminKey}, "")
	if w.Code != http.StatusOK {
		t.Errorf("valid key: expected status 200, got %d", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/admin/auth", gin.H{"key": "wrong"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("invalid key: expected status 401, got %d", w.Code)
	}
}

func TestAdminRoutes_RequireKey(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "GET", "/api/admin/hubs", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected status 401, got %d", w.Code)
	}

	w = doJSON(t, router, "GET", "/api/admin/hubs", nil, "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected status 401, got %d", w.Code)
	}

	w = doJSON(t, router, "GET", "/api/admin/hubs", nil, testAdminKey)
	if w.Code != http.StatusOK {
		t.Errorf("valid key: expected status 200, got %d", w.Code)
	}
}

func TestCreateHub(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/admin/hubs", gin.H{
		"name":          "Tokyo Central",
		"location_name": "Tokyo",
		"inventory":     gin.H{"Water": 100},
	}, testAdminKey)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Hub models.Hub `json:"hub"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Hub.Inventory["Water"] != 100 {
		t.Errorf("inventory missing from created hub: %+v", resp.Hub)
	}
}

func TestCreateHub_UnknownLocation(t *testing.T) {
	router := setupTestRouter(&mockService{})

	w := doJSON(t, router, "POST", "/api/admin/hubs", gin.H{
		"name":          "Lost Hub",
		"location_name": "Atlantis",
	}, testAdminKey)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDeleteHub_Conflict(t *testing.T) {
	svc := &mockService{deleteErr: fmt.Errorf("hub hub-1: %w", models.ErrActiveAllocations)}
	router := setupTestRouter(svc)

	w := doJSON(t, router, "DELETE", "/api/admin/hubs/hub-1", nil, testAdminKey)
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}
}

func TestUpdateDonationTracking_ConflictMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient inventory", models.ErrInsufficientInventory, http.StatusConflict},
		{"invalid transition", models.ErrInvalidTransition, http.StatusConflict},
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"validation", models.ErrValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{allocateErr: tt.err}
			router := setupTestRouter(svc)

			w := doJSON(t, router, "PATCH", "/api/admin/donations/don-1/tracking", gin.H{
				"tracking_status": "allocated",
				"hub_id":          "hub-1",
			}, testAdminKey)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestUpdateRequestStatus(t *testing.T) {
	svc := &mockService{requests: []models.VictimRequest{
		{ID: "req-1", FulfilledStatus: models.FulfilledPending},
	}}
	router := setupTestRouter(svc)

	w := doJSON(t, router, "PATCH", "/api/admin/victim-requests/req-1/status", gin.H{
		"fulfilled_status": "in_progress",
	}, testAdminKey)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "PATCH", "/api/admin/victim-requests/req-1/status", gin.H{
		"fulfilled_status": "pending",
	}, testAdminKey)
	if w.Code != http.StatusConflict {
		t.Errorf("backward transition: expected status 409, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: expected status 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected status 429, got %d", second.Code)
	}
}
