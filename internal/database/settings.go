package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"clinicbook/internal/models"
	"clinicbook/internal/slots"
)

// DefaultScheduleSettings are used for doctors who have never saved
// settings: 09:00-17:00 in 30-minute slots, Friday and Saturday off,
// every generated slot offered.
func DefaultScheduleSettings() *models.ScheduleSettings {
	return &models.ScheduleSettings{
		SlotDuration: 30,
		StartWork:    "09:00",
		EndWork:      "17:00",
		OffDays:      []int{5, 6},
		OfferedSlots: slots.DefaultPool(),
	}
}

// GetScheduleSettings returns the doctor's stored settings, or the
// defaults when no row exists. Doctor existence is checked by callers.
func (db *DB) GetScheduleSettings(ctx context.Context, doctorID string) (*models.ScheduleSettings, error) {
	row := db.QueryRowContext(ctx, `
		SELECT slot_duration, start_work, end_work, off_days, available_slots, version, updated_at
		FROM schedule_settings WHERE doctor_id = ?`, doctorID)

	var s models.ScheduleSettings
	var offDays, offered string
	err := row.Scan(&s.SlotDuration, &s.StartWork, &s.EndWork, &offDays, &offered, &s.Version, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return DefaultScheduleSettings(), nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(offDays), &s.OffDays); err != nil {
		return nil, fmt.Errorf("decode off_days: %w", err)
	}
	if err := json.Unmarshal([]byte(offered), &s.OfferedSlots); err != nil {
		return nil, fmt.Errorf("decode available_slots: %w", err)
	}
	return &s, nil
}

// UpsertScheduleSettings fully replaces the doctor's settings and bumps
// the version counter. When expectedVersion is non-zero and does not
// match the stored row the write is rejected with ErrVersionMismatch,
// so two concurrent editors cannot silently overwrite each other.
func (db *DB) UpsertScheduleSettings(ctx context.Context, doctorID string, s *models.ScheduleSettings, expectedVersion int64) (*models.ScheduleSettings, error) {
	offDays, err := json.Marshal(s.OffDays)
	if err != nil {
		return nil, fmt.Errorf("encode off_days: %w", err)
	}
	offered, err := json.Marshal(s.OfferedSlots)
	if err != nil {
		return nil, fmt.Errorf("encode available_slots: %w", err)
	}

	now := time.Now()

	if expectedVersion > 0 {
		res, err := db.ExecContext(ctx, `
			UPDATE schedule_settings SET
				slot_duration = ?, start_work = ?, end_work = ?,
				off_days = ?, available_slots = ?,
				version = version + 1, updated_at = ?
			WHERE doctor_id = ? AND version = ?`,
			s.SlotDuration, s.StartWork, s.EndWork,
			string(offDays), string(offered), now,
			doctorID, expectedVersion,
		)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, models.ErrVersionMismatch
		}
		return db.GetScheduleSettings(ctx, doctorID)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO schedule_settings
			(doctor_id, slot_duration, start_work, end_work, off_days, available_slots, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(doctor_id) DO UPDATE SET
			slot_duration = excluded.slot_duration,
			start_work = excluded.start_work,
			end_work = excluded.end_work,
			off_days = excluded.off_days,
			available_slots = excluded.available_slots,
			version = schedule_settings.version + 1,
			updated_at = excluded.updated_at`,
		doctorID, s.SlotDuration, s.StartWork, s.EndWork,
		string(offDays), string(offered), now, now,
	)
	if err != nil {
		return nil, err
	}
	return db.GetScheduleSettings(ctx, doctorID)
}
