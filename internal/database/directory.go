package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clinicbook/internal/models"
)

// CreateDoctor inserts an account row and its doctor profile, returning
// the populated profile. Empty descriptive fields get the registration
// defaults.
func (db *DB) CreateDoctor(ctx context.Context, phoneNumber, fullName, specialty, hospital, location string) (*models.Doctor, error) {
	userID := uuid.NewString()
	doctorID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, phone_number, full_name, role) VALUES (?, ?, ?, ?)`,
		userID, phoneNumber, fullName, models.RoleDoctor,
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if specialty == "" {
		specialty = "General"
	}
	if hospital == "" {
		hospital = "Main Hospital"
	}
	if location == "" {
		location = "City Center"
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO doctors (id, user_id, full_name, specialty, hospital, location)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doctorID, userID, fullName, specialty, hospital, location,
	); err != nil {
		return nil, fmt.Errorf("insert doctor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return db.GetDoctor(ctx, doctorID)
}

// CreatePatient inserts an account row and its patient profile.
func (db *DB) CreatePatient(ctx context.Context, phoneNumber, fullName, gender, dateOfBirth string) (*models.Patient, error) {
	userID := uuid.NewString()
	patientID := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, phone_number, full_name, role) VALUES (?, ?, ?, ?)`,
		userID, phoneNumber, fullName, models.RolePatient,
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if gender == "" {
		gender = "Not Specified"
	}
	if dateOfBirth == "" {
		dateOfBirth = "1990-01-01"
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO patients (id, user_id, full_name, gender, date_of_birth)
		 VALUES (?, ?, ?, ?, ?)`,
		patientID, userID, fullName, gender, dateOfBirth,
	); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return db.GetPatient(ctx, patientID)
}

// GetDoctor returns a doctor profile by profile id.
func (db *DB) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var d models.Doctor
	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, specialty, hospital, location, created_at
		FROM doctors WHERE id = ?`, doctorID,
	).Scan(&d.ID, &d.UserID, &d.FullName, &d.Specialty, &d.Hospital, &d.Location, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetPatient returns a patient profile by profile id.
func (db *DB) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	var p models.Patient
	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, full_name, gender, date_of_birth, created_at
		FROM patients WHERE id = ?`, patientID,
	).Scan(&p.ID, &p.UserID, &p.FullName, &p.Gender, &p.DateOfBirth, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListDoctors returns all doctor profiles ordered by name.
func (db *DB) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, full_name, specialty, hospital, location, created_at
		FROM doctors ORDER BY full_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.ID, &d.UserID, &d.FullName, &d.Specialty, &d.Hospital, &d.Location, &d.CreatedAt); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// ResolveDoctorID maps an ambiguous id (profile id or account id) to the
// doctor profile id. Resolution is idempotent: a profile id maps to
// itself. Returns resolved=false when neither lookup matches.
func (db *DB) ResolveDoctorID(ctx context.Context, rawID string) (string, bool, error) {
	return db.resolveProfileID(ctx, "doctors", rawID)
}

// ResolvePatientID maps an ambiguous id to the patient profile id.
func (db *DB) ResolvePatientID(ctx context.Context, rawID string) (string, bool, error) {
	return db.resolveProfileID(ctx, "patients", rawID)
}

func (db *DB) resolveProfileID(ctx context.Context, table, rawID string) (string, bool, error) {
	var id string
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE id = ? OR user_id = ? LIMIT 1", table),
		rawID, rawID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return rawID, false, nil
	}
	if err != nil {
		return rawID, false, err
	}
	return id, true, nil
}

// DoctorName returns the doctor's full name, "" when unknown. Used to
// enrich fallback-store appointment rows.
func (db *DB) DoctorName(ctx context.Context, doctorID string) string {
	var name string
	if err := db.QueryRowContext(ctx,
		"SELECT full_name FROM doctors WHERE id = ?", doctorID,
	).Scan(&name); err != nil {
		return ""
	}
	return name
}

// PatientName returns the patient's full name, "" when unknown.
func (db *DB) PatientName(ctx context.Context, patientID string) string {
	var name string
	if err := db.QueryRowContext(ctx,
		"SELECT full_name FROM patients WHERE id = ?", patientID,
	).Scan(&name); err != nil {
		return ""
	}
	return name
}
