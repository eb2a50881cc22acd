package models

import (
	"fmt"
	"strings"
	"time"
)

// Hub is a physical relief-supply distribution point. Inventory maps
// item name to quantity; entries are always positive, a drained item is
// removed rather than stored at zero.
type Hub struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	LocationName string         `json:"location_name"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Contact      string         `json:"contact,omitempty"`
	Inventory    map[string]int `json:"inventory"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (h *Hub) Coordinates() Coordinates {
	return Coordinates{Latitude: h.Latitude, Longitude: h.Longitude}
}

// ValidateItems rejects item mappings with blank names or non-positive
// quantities. Zero-quantity entries are never accepted: omitting an item
// is the only way to express "none".
func ValidateItems(items map[string]int) error {
	for name, qty := range items {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: item name must not be empty", ErrValidation)
		}
		if qty <= 0 {
			return fmt.Errorf("%w: quantity for %q must be a positive integer, got %d", ErrValidation, name, qty)
		}
	}
	return nil
}
