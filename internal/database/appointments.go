package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"clinicbook/internal/models"
)

// InsertAppointment writes an appointment row. A violation of the
// (doctor_id, appointment_time) unique index surfaces as ErrSlotTaken;
// that index is the authoritative double-booking guard.
func (db *DB) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_time, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.DoctorID, a.PatientID, a.AppointmentTime, a.Notes, a.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return models.ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// DeleteAppointment removes the row, reporting whether it existed.
func (db *DB) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateAppointmentNotes replaces the notes of an appointment. Returns
// (nil, nil) when the id is unknown to this store.
func (db *DB) UpdateAppointmentNotes(ctx context.Context, id, notes string) (*models.Appointment, error) {
	res, err := db.ExecContext(ctx, "UPDATE appointments SET notes = ? WHERE id = ?", notes, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return db.getAppointment(ctx, id)
}

func (db *DB) getAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	err := db.QueryRowContext(ctx, `
		SELECT id, doctor_id, patient_id, appointment_time, notes, created_at
		FROM appointments WHERE id = ?`, id,
	).Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.AppointmentTime, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAppointmentsByDoctor returns the doctor's appointments newest
// first, enriched with patient names.
func (db *DB) ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return db.listAppointments(ctx, `
		SELECT a.id, a.doctor_id, a.patient_id, a.appointment_time, a.notes, a.created_at,
		       COALESCE(d.full_name, ''), COALESCE(p.full_name, '')
		FROM appointments a
		LEFT JOIN doctors d ON a.doctor_id = d.id
		LEFT JOIN patients p ON a.patient_id = p.id
		WHERE a.doctor_id = ?
		ORDER BY a.appointment_time DESC`, doctorID)
}

// ListAppointmentsByPatient returns the patient's appointments newest
// first, enriched with doctor names.
func (db *DB) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return db.listAppointments(ctx, `
		SELECT a.id, a.doctor_id, a.patient_id, a.appointment_time, a.notes, a.created_at,
		       COALESCE(d.full_name, ''), COALESCE(p.full_name, '')
		FROM appointments a
		LEFT JOIN doctors d ON a.doctor_id = d.id
		LEFT JOIN patients p ON a.patient_id = p.id
		WHERE a.patient_id = ?
		ORDER BY a.appointment_time DESC`, patientID)
}

func (db *DB) listAppointments(ctx context.Context, query string, arg any) ([]models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.AppointmentTime,
			&a.Notes, &a.CreatedAt, &a.DoctorName, &a.PatientName); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// HasConflict reports whether the doctor already has an appointment at
// the exact slot key.
func (db *DB) HasConflict(ctx context.Context, doctorID, slotKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = ? AND appointment_time = ?`,
		doctorID, slotKey,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BookedLabels returns the slot labels the doctor has booked on the
// given "YYYY-MM-DD" date.
func (db *DB) BookedLabels(ctx context.Context, doctorID, date string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT appointment_time FROM appointments
		WHERE doctor_id = ? AND appointment_time LIKE ?`,
		doctorID, date+" %",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		_, label := models.SplitSlotKey(key)
		labels = append(labels, label)
	}
	return labels, rows.Err()
}
