package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reliefgrid/relief-engine/internal/models"
)

func (s *SQLiteDB) AddHub(ctx context.Context, h *models.Hub) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO hubs (id, name, location_name, latitude, longitude, contact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.LocationName, h.Latitude, h.Longitude, h.Contact, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting hub: %w", err)
	}

	for item, qty := range h.Inventory {
		if qty <= 0 {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO hub_inventory (hub_id, item, quantity) VALUES (?, ?, ?)`,
			h.ID, item, qty,
		)
		if err != nil {
			return fmt.Errorf("inserting hub inventory: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing hub: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetHub(ctx context.Context, id string) (*models.Hub, error) {
	h := &models.Hub{}
	var contact sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, location_name, latitude, longitude, contact, created_at
		 FROM hubs WHERE id = ?`, id,
	).Scan(&h.ID, &h.Name, &h.LocationName, &h.Latitude, &h.Longitude, &contact, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("hub %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting hub: %w", err)
	}
	h.Contact = contact.String

	h.Inventory, err = s.hubInventory(ctx, id)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *SQLiteDB) ListHubs(ctx context.Context) ([]models.Hub, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location_name, latitude, longitude, contact, created_at
		 FROM hubs ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing hubs: %w", err)
	}
	defer rows.Close()

	var hubs []models.Hub
	for rows.Next() {
		var h models.Hub
		var contact sql.NullString
		if err := rows.Scan(&h.ID, &h.Name, &h.LocationName, &h.Latitude, &h.Longitude, &contact, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning hub: %w", err)
		}
		h.Contact = contact.String
		h.Inventory = map[string]int{}
		hubs = append(hubs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	invRows, err := s.db.QueryContext(ctx, `SELECT hub_id, item, quantity FROM hub_inventory`)
	if err != nil {
		return nil, fmt.Errorf("listing hub inventory: %w", err)
	}
	defer invRows.Close()

	byID := make(map[string]*models.Hub, len(hubs))
	for i := range hubs {
		byID[hubs[i].ID] = &hubs[i]
	}
	for invRows.Next() {
		var hubID, item string
		var qty int
		if err := invRows.Scan(&hubID, &item, &qty); err != nil {
			return nil, fmt.Errorf("scanning hub inventory: %w", err)
		}
		if h, ok := byID[hubID]; ok {
			h.Inventory[item] = qty
		}
	}
	return hubs, invRows.Err()
}

func (s *SQLiteDB) hubInventory(ctx context.Context, hubID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item, quantity FROM hub_inventory WHERE hub_id = ?`, hubID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting hub inventory: %w", err)
	}
	defer rows.Close()

	inv := map[string]int{}
	for rows.Next() {
		var item string
		var qty int
		if err := rows.Scan(&item, &qty); err != nil {
			return nil, fmt.Errorf("scanning hub inventory: %w", err)
		}
		inv[item] = qty
	}
	return inv, rows.Err()
}

func (s *SQLiteDB) DeleteHub(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hub_inventory WHERE hub_id = ?`, id); err != nil {
		return fmt.Errorf("deleting hub inventory: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM hubs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting hub: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting hub: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("hub %s: %w", id, models.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing hub deletion: %w", err)
	}
	return nil
}

func (s *SQLiteDB) HasActiveAllocations(ctx context.Context, hubID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(1) FROM donations WHERE assigned_hub_id = ? AND tracking_status != ?) +
			(SELECT COUNT(1) FROM victim_requests WHERE matched_hub_id = ? AND fulfilled_status != ?)`,
		hubID, models.TrackingFulfilled, hubID, models.FulfilledDone,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking active allocations: %w", err)
	}
	return n > 0, nil
}
