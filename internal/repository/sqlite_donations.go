package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/reliefgrid/relief-engine/internal/models"
)

func (s *SQLiteDB) AddDonation(ctx context.Context, d *models.Donation) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("encoding donation items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO donations (id, donor_name, donor_email, donor_phone, amount, items, notes, tracking_status, assigned_hub_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.DonorName, d.DonorEmail, d.DonorPhone, d.Amount, string(items), d.Notes, d.TrackingStatus, d.AssignedHubID, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting donation: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	d, err := s.scanDonationRow(s.db.QueryRowContext(ctx,
		`SELECT id, donor_name, donor_email, donor_phone, amount, items, notes, tracking_status, assigned_hub_id, created_at
		 FROM donations WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("donation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting donation: %w", err)
	}

	d.TrackingNotes, err = s.donationNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *SQLiteDB) ListDonations(ctx context.Context) ([]models.Donation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, donor_name, donor_email, donor_phone, amount, items, notes, tracking_status, assigned_hub_id, created_at
		 FROM donations ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []models.Donation
	for rows.Next() {
		d, err := s.scanDonationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}
		donations = append(donations, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range donations {
		donations[i].TrackingNotes, err = s.donationNotes(ctx, donations[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return donations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteDB) scanDonationRow(row rowScanner) (*models.Donation, error) {
	d := &models.Donation{}
	var email, phone, notes sql.NullString
	var hubID sql.NullString
	var items string
	if err := row.Scan(&d.ID, &d.DonorName, &email, &phone, &d.Amount, &items, &notes, &d.TrackingStatus, &hubID, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.DonorEmail = email.String
	d.DonorPhone = phone.String
	d.Notes = notes.String
	if hubID.Valid {
		d.AssignedHubID = &hubID.String
	}
	if err := json.Unmarshal([]byte(items), &d.Items); err != nil {
		return nil, fmt.Errorf("decoding donation items: %w", err)
	}
	d.AllocatedStatus = d.TrackingStatus.AllocatedView()
	return d, nil
}

func (s *SQLiteDB) donationNotes(ctx context.Context, donationID string) ([]models.TrackingNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT note, created_at FROM donation_notes WHERE donation_id = ? ORDER BY id`, donationID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting donation notes: %w", err)
	}
	defer rows.Close()

	notes := []models.TrackingNote{}
	for rows.Next() {
		var n models.TrackingNote
		if err := rows.Scan(&n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning donation note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *SQLiteDB) UpdateDonationTracking(ctx context.Context, id string, expect, next models.TrackingStatus, note models.TrackingNote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := casDonationStatus(ctx, tx, id, expect, next); err != nil {
		return err
	}
	if err := appendDonationNote(ctx, tx, id, note); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tracking update: %w", err)
	}
	return nil
}

func (s *SQLiteDB) AllocateDonation(ctx context.Context, id string, expect models.TrackingStatus, hubID string, items map[string]int, note models.TrackingNote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM hubs WHERE id = ?`, hubID).Scan(&exists); err != nil {
		return fmt.Errorf("checking hub: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("hub %s: %w", hubID, models.ErrNotFound)
	}

	// The whole debit is all-or-nothing: any shortfall rolls back every
	// change made so far.
	for item, qty := range items {
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(quantity, 0) FROM hub_inventory WHERE hub_id = ? AND item = ?`,
			hubID, item,
		).Scan(&available)
		if err == sql.ErrNoRows {
			available = 0
		} else if err != nil {
			return fmt.Errorf("checking available quantity: %w", err)
		}

		if available < qty {
			return fmt.Errorf("hub %s has %d of %q, need %d: %w",
				hubID, available, item, qty, models.ErrInsufficientInventory)
		}

		remaining := available - qty
		if remaining == 0 {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM hub_inventory WHERE hub_id = ? AND item = ?`, hubID, item)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE hub_inventory SET quantity = ? WHERE hub_id = ? AND item = ?`,
				remaining, hubID, item)
		}
		if err != nil {
			return fmt.Errorf("debiting inventory: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE donations SET tracking_status = ?, assigned_hub_id = ? WHERE id = ? AND tracking_status = ?`,
		models.TrackingAllocated, hubID, id, expect,
	)
	if err != nil {
		return fmt.Errorf("updating donation status: %w", err)
	}
	if err := requireCASHit(ctx, tx, res, id); err != nil {
		return err
	}

	if err := appendDonationNote(ctx, tx, id, note); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing allocation: %w", err)
	}
	return nil
}

func casDonationStatus(ctx context.Context, tx *sql.Tx, id string, expect, next models.TrackingStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE donations SET tracking_status = ? WHERE id = ? AND tracking_status = ?`,
		next, id, expect,
	)
	if err != nil {
		return fmt.Errorf("updating donation status: %w", err)
	}
	return requireCASHit(ctx, tx, res, id)
}

// requireCASHit distinguishes a missing donation from a lost
// status race after a guarded UPDATE matched no rows.
func requireCASHit(ctx context.Context, tx *sql.Tx, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating donation status: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM donations WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking donation: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("donation %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("donation %s status changed concurrently: %w", id, models.ErrInvalidTransition)
}

func appendDonationNote(ctx context.Context, tx *sql.Tx, donationID string, note models.TrackingNote) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO donation_notes (donation_id, note, created_at) VALUES (?, ?, ?)`,
		donationID, note.Note, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending tracking note: %w", err)
	}
	return nil
}
