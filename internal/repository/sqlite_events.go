package repository

import (
	"context"
	"fmt"

	"github.com/reliefgrid/relief-engine/internal/models"
)

func (s *SQLiteDB) AddEvent(ctx context.Context, e *models.DisasterEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO disaster_events (id, source_text, location_name, latitude, longitude, disaster_type, severity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourceText, e.LocationName, e.Latitude, e.Longitude, e.DisasterType, e.Severity, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting disaster event: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListEvents(ctx context.Context) ([]models.DisasterEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, location_name, latitude, longitude, disaster_type, severity, created_at
		 FROM disaster_events ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing disaster events: %w", err)
	}
	defer rows.Close()

	var events []models.DisasterEvent
	for rows.Next() {
		var e models.DisasterEvent
		if err := rows.Scan(&e.ID, &e.SourceText, &e.LocationName, &e.Latitude, &e.Longitude, &e.DisasterType, &e.Severity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning disaster event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteDB) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(1) FROM hubs),
			(SELECT COUNT(1) FROM donations),
			(SELECT COUNT(1) FROM victim_requests),
			(SELECT COUNT(1) FROM disaster_events)`,
	).Scan(&st.TotalHubs, &st.TotalDonations, &st.TotalRequests, &st.TotalEvents)
	if err != nil {
		return models.Stats{}, fmt.Errorf("computing stats: %w", err)
	}
	return st, nil
}
