package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	// SQLite allows a single writer; serialize access through one
	// connection so concurrent transactions queue instead of failing
	// with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS hubs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			location_name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			contact TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS hub_inventory (
			hub_id TEXT NOT NULL,
			item TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			PRIMARY KEY (hub_id, item),
			FOREIGN KEY (hub_id) REFERENCES hubs(id)
		);

		CREATE TABLE IF NOT EXISTS disaster_events (
			id TEXT PRIMARY KEY,
			source_text TEXT NOT NULL,
			location_name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			disaster_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS donations (
			id TEXT PRIMARY KEY,
			donor_name TEXT NOT NULL,
			donor_email TEXT,
			donor_phone TEXT,
			amount REAL NOT NULL DEFAULT 0,
			items TEXT NOT NULL,
			notes TEXT,
			tracking_status TEXT NOT NULL,
			assigned_hub_id TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (assigned_hub_id) REFERENCES hubs(id)
		);

		CREATE TABLE IF NOT EXISTS donation_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			donation_id TEXT NOT NULL,
			note TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (donation_id) REFERENCES donations(id)
		);

		CREATE TABLE IF NOT EXISTS victim_requests (
			id TEXT PRIMARY KEY,
			victim_name TEXT NOT NULL,
			victim_phone TEXT NOT NULL,
			location_name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			urgency TEXT NOT NULL,
			requested_items TEXT NOT NULL,
			notes TEXT,
			fulfilled_status TEXT NOT NULL,
			matched_hub_id TEXT,
			match_score INTEGER,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (matched_hub_id) REFERENCES hubs(id)
		);

		CREATE INDEX IF NOT EXISTS idx_donations_hub ON donations(assigned_hub_id);
		CREATE INDEX IF NOT EXISTS idx_donation_notes_donation ON donation_notes(donation_id);
		CREATE INDEX IF NOT EXISTS idx_requests_hub ON victim_requests(matched_hub_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
