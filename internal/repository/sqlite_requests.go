package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/reliefgrid/relief-engine/internal/models"
)

func (s *SQLiteDB) AddRequest(ctx context.Context, r *models.VictimRequest) error {
	items, err := json.Marshal(r.RequestedItems)
	if err != nil {
		return fmt.Errorf("encoding requested items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO victim_requests
		 (id, victim_name, victim_phone, location_name, latitude, longitude, urgency, requested_items, notes, fulfilled_status, matched_hub_id, match_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.VictimName, r.VictimPhone, r.LocationName, r.Latitude, r.Longitude,
		r.Urgency, string(items), r.Notes, r.FulfilledStatus, r.MatchedHubID, r.MatchScore, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting victim request: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetRequest(ctx context.Context, id string) (*models.VictimRequest, error) {
	r, err := scanRequestRow(s.db.QueryRowContext(ctx,
		`SELECT id, victim_name, victim_phone, location_name, latitude, longitude, urgency, requested_items, notes, fulfilled_status, matched_hub_id, match_score, created_at
		 FROM victim_requests WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("victim request %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting victim request: %w", err)
	}
	return r, nil
}

func (s *SQLiteDB) ListRequests(ctx context.Context) ([]models.VictimRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, victim_name, victim_phone, location_name, latitude, longitude, urgency, requested_items, notes, fulfilled_status, matched_hub_id, match_score, created_at
		 FROM victim_requests ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing victim requests: %w", err)
	}
	defer rows.Close()

	var requests []models.VictimRequest
	for rows.Next() {
		r, err := scanRequestRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning victim request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func scanRequestRow(row rowScanner) (*models.VictimRequest, error) {
	r := &models.VictimRequest{}
	var notes sql.NullString
	var hubID sql.NullString
	var score sql.NullInt64
	var items string
	if err := row.Scan(&r.ID, &r.VictimName, &r.VictimPhone, &r.LocationName, &r.Latitude, &r.Longitude,
		&r.Urgency, &items, &notes, &r.FulfilledStatus, &hubID, &score, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Notes = notes.String
	if hubID.Valid {
		r.MatchedHubID = &hubID.String
	}
	if score.Valid {
		v := int(score.Int64)
		r.MatchScore = &v
	}
	if err := json.Unmarshal([]byte(items), &r.RequestedItems); err != nil {
		return nil, fmt.Errorf("decoding requested items: %w", err)
	}
	return r, nil
}

func (s *SQLiteDB) UpdateRequestStatus(ctx context.Context, id string, expect, next models.FulfilledStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE victim_requests SET fulfilled_status = ? WHERE id = ? AND fulfilled_status = ?`,
		next, id, expect,
	)
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM victim_requests WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking victim request: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("victim request %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("victim request %s status changed concurrently: %w", id, models.ErrInvalidTransition)
}
