package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the primary clinic store.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Accounts
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			phone_number TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Doctor profiles
		`CREATE TABLE IF NOT EXISTS doctors (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL,
			specialty TEXT NOT NULL DEFAULT 'General',
			hospital TEXT NOT NULL DEFAULT 'Main Hospital',
			location TEXT NOT NULL DEFAULT 'City Center',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Patient profiles
		`CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			user_id TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL,
			gender TEXT NOT NULL DEFAULT 'Not Specified',
			date_of_birth TEXT NOT NULL DEFAULT '1990-01-01',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Per-doctor schedule settings; offered slots and off days are
		// JSON-encoded arrays.
		`CREATE TABLE IF NOT EXISTS schedule_settings (
			doctor_id TEXT PRIMARY KEY,
			slot_duration INTEGER NOT NULL,
			start_work TEXT NOT NULL,
			end_work TEXT NOT NULL,
			off_days TEXT NOT NULL,
			available_slots TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (doctor_id) REFERENCES doctors(id)
		)`,

		// Appointments; appointment_time is "<YYYY-MM-DD> <hh:mm> <AM/PM>".
		// The unique index is the real double-booking guard; conflict
		// pre-checks upstream are advisory only.
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			doctor_id TEXT NOT NULL,
			patient_id TEXT NOT NULL,
			appointment_time TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_slot
			ON appointments(doctor_id, appointment_time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_doctors_user ON doctors(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_patients_user ON patients(user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Ping reports whether the primary store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}
