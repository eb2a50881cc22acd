package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reliefgrid/relief-engine/internal/engine"
	"github.com/reliefgrid/relief-engine/internal/models"
)

// Service is the engine surface the HTTP layer depends on.
type Service interface {
	PredictLocation(ctx context.Context, text string) (*engine.Prediction, error)
	CreateDonation(ctx context.Context, in engine.DonationInput) (*models.Donation, error)
	ListDonations(ctx context.Context) ([]models.Donation, error)
	CreateVictimRequest(ctx context.Context, in engine.RequestInput) (*models.VictimRequest, *engine.MatchedHub, error)
	ListRequests(ctx context.Context) ([]models.VictimRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, next models.FulfilledStatus) (*models.VictimRequest, error)
	UpdateDonationTracking(ctx context.Context, id string, upd engine.TrackingUpdate) (*models.Donation, error)
	AddHub(ctx context.Context, in engine.HubInput) (*models.Hub, error)
	ListHubs(ctx context.Context) ([]models.Hub, error)
	DeleteHub(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.Stats, error)
}

type Handler struct {
	svc      Service
	adminKey string
}

func NewHandler(svc Service, adminKey string) *Handler {
	return &Handler{
		svc:      svc,
		adminKey: adminKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.POST("/predict-location", h.predictLocation)
	api.POST("/donations", h.createDonation)
	api.GET("/donations", h.listDonations)
	api.POST("/victim-requests", h.createVictimRequest)
	api.GET("/victim-requests", h.listVictimRequests)
	api.GET("/dashboard/stats", h.dashboardStats)

	admin := api.Group("/admin")
	admin.POST("/auth", h.adminAuth)
	protected := admin.Group("", AdminKeyMiddleware(h.adminKey))
	protected.GET("/hubs", h.listHubs)
	protected.POST("/hubs", h.createHub)
	protected.DELETE("/hubs/:id", h.deleteHub)
	protected.PATCH("/donations/:id/tracking", h.updateDonationTracking)
	protected.PATCH("/victim-requests/:id/status", h.updateRequestStatus)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) predictLocation(c *gin.Context) {
	var body struct {
		Tweet string `json:"tweet"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	p, err := h.svc.PredictLocation(c.Request.Context(), body.Tweet)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"detected_location": p.Event.LocationName,
		"latitude":          p.Event.Latitude,
		"longitude":         p.Event.Longitude,
		"disaster_type":     p.Event.DisasterType,
		"severity":          p.Event.Severity,
		"nearby_hubs":       p.NearbyHubs,
	})
}

func (h *Handler) createDonation(c *gin.Context) {
	var body struct {
		DonorName  string         `json:"donor_name"`
		DonorEmail string         `json:"donor_email"`
		DonorPhone string         `json:"donor_phone"`
		Amount     float64        `json:"amount"`
		Items      map[string]int `json:"items"`
		Notes      string         `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	d, err := h.svc.CreateDonation(c.Request.Context(), engine.DonationInput{
		DonorName:  body.DonorName,
		DonorEmail: body.DonorEmail,
		DonorPhone: body.DonorPhone,
		Amount:     body.Amount,
		Items:      body.Items,
		Notes:      body.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "donation": d})
}

func (h *Handler) listDonations(c *gin.Context) {
	donations, err := h.svc.ListDonations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	c.JSON(http.StatusOK, gin.H{"donations": donations})
}

func (h *Handler) createVictimRequest(c *gin.Context) {
	var body struct {
		VictimName   string         `json:"victim_name"`
		VictimPhone  string         `json:"victim_phone"`
		LocationName string         `json:"location_name"`
		Urgency      string         `json:"urgency"`
		Items        map[string]int `json:"items"`
		Notes        string         `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	r, matched, err := h.svc.CreateVictimRequest(c.Request.Context(), engine.RequestInput{
		VictimName:     body.VictimName,
		VictimPhone:    body.VictimPhone,
		LocationName:   body.LocationName,
		Urgency:        models.Urgency(body.Urgency),
		RequestedItems: body.Items,
		Notes:          body.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"success": true, "request": r}
	if matched != nil {
		resp["matched_hub"] = matched
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) listVictimRequests(c *gin.Context) {
	requests, err := h.svc.ListRequests(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if requests == nil {
		requests = []models.VictimRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) adminAuth(c *gin.Context) {
	var body struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Key != h.adminKey {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid admin key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listHubs(c *gin.Context) {
	hubs, err := h.svc.ListHubs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if hubs == nil {
		hubs = []models.Hub{}
	}
	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

func (h *Handler) createHub(c *gin.Context) {
	var body struct {
		Name         string         `json:"name"`
		LocationName string         `json:"location_name"`
		Contact      string         `json:"contact"`
		Inventory    map[string]int `json:"inventory"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	hub, err := h.svc.AddHub(c.Request.Context(), engine.HubInput{
		Name:         body.Name,
		LocationName: body.LocationName,
		Contact:      body.Contact,
		Inventory:    body.Inventory,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "hub": hub})
}

func (h *Handler) deleteHub(c *gin.Context) {
	if err := h.svc.DeleteHub(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) updateDonationTracking(c *gin.Context) {
	var body struct {
		TrackingStatus string `json:"tracking_status"`
		TrackingNote   string `json:"tracking_note"`
		HubID          string `json:"hub_id"`
		Override       bool   `json:"override"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	d, err := h.svc.UpdateDonationTracking(c.Request.Context(), c.Param("id"), engine.TrackingUpdate{
		Status:   models.TrackingStatus(body.TrackingStatus),
		Note:     body.TrackingNote,
		HubID:    body.HubID,
		Override: body.Override,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "donation": d})
}

func (h *Handler) updateRequestStatus(c *gin.Context) {
	var body struct {
		FulfilledStatus string `json:"fulfilled_status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	r, err := h.svc.UpdateRequestStatus(c.Request.Context(), c.Param("id"), models.FulfilledStatus(body.FulfilledStatus))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "request": r})
}

// writeError maps domain sentinel errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrInsufficientInventory),
		errors.Is(err, models.ErrActiveAllocations):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": msg})
}
