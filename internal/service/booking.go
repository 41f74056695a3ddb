package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinicbook/internal/events"
	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/slots"
)

// Book creates an appointment for the doctor+date+label after checking
// both stores for a conflict. The pre-check is advisory: the primary
// store's unique index is what actually prevents a double booking when
// two requests race through the check together.
func (s *Scheduler) Book(ctx context.Context, doctorID, patientID, date, label, notes string) (*models.Appointment, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: bad date %q, expected YYYY-MM-DD", models.ErrInvalidInput, date)
	}
	if !slots.IsCanonicalLabel(label) {
		return nil, fmt.Errorf("%w: bad slot label %q", models.ErrInvalidInput, label)
	}

	doctor, err := s.Resolve(ctx, models.RoleDoctor, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Resolved {
		return nil, fmt.Errorf("%w: no doctor profile for id %q", models.ErrInvalidIdentifier, doctorID)
	}

	patient, err := s.Resolve(ctx, models.RolePatient, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.Resolved {
		return nil, fmt.Errorf("%w: no patient profile for id %q", models.ErrInvalidIdentifier, patientID)
	}

	slotKey := models.SlotKey(date, label)

	release, ok, err := s.locker.Acquire(ctx, doctor.ProfileID, slotKey)
	if err != nil {
		// Lock service trouble must not block bookings; the store
		// uniqueness constraint still holds the invariant.
		s.logger.Warn().Err(err).Msg("slot lock unavailable, continuing without it")
	} else if !ok {
		metrics.IncBookingConflict()
		return nil, fmt.Errorf("%w: slot is being booked right now", models.ErrSlotTaken)
	} else {
		defer release()
	}

	taken, err := s.appointments.FindConflict(ctx, doctor.ProfileID, slotKey)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if taken {
		metrics.IncBookingConflict()
		return nil, models.ErrSlotTaken
	}

	appt := &models.Appointment{
		ID:              uuid.NewString(),
		DoctorID:        doctor.ProfileID,
		PatientID:       patient.ProfileID,
		AppointmentTime: slotKey,
		Notes:           notes,
		CreatedAt:       time.Now().UTC(),
	}

	store, err := s.appointments.Insert(ctx, appt)
	if err != nil {
		if errors.Is(err, models.ErrSlotTaken) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated(store)
	s.publish(events.AppointmentBooked, appt.DoctorID, appt.ID, appt.AppointmentTime)
	s.logger.Info().
		Str("doctor_id", appt.DoctorID).
		Str("slot", appt.AppointmentTime).
		Str("store", store).
		Msg("appointment booked")
	return appt, nil
}

// Cancel removes an appointment from whichever stores hold it.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	if err := s.appointments.Remove(ctx, id); err != nil {
		return err
	}
	s.publish(events.AppointmentCancelled, "", id, "")
	return nil
}

// UpdateNotes mutates an appointment's notes; the rest of the record is
// immutable after booking.
func (s *Scheduler) UpdateNotes(ctx context.Context, id, notes string) (*models.Appointment, error) {
	return s.appointments.UpdateNotes(ctx, id, notes)
}
