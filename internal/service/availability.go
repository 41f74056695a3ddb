package service

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/models"
)

// ListSlots answers which of the doctor's offered slots are free on the
// date ("YYYY-MM-DD"). On a day off the result is empty: the doctor is
// closed, not fully booked. An empty offered set (e.g. just after a
// duration change reset it) also yields an empty result.
func (s *Scheduler) ListSlots(ctx context.Context, doctorID, date string) ([]models.SlotStatus, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q, expected YYYY-MM-DD", models.ErrInvalidInput, date)
	}

	profileID, err := s.resolveLenient(ctx, models.RoleDoctor, doctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.directory.GetDoctor(ctx, profileID); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetScheduleSettings(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if settings.IsOffDay(int(day.Weekday())) {
		return nil, nil
	}

	booked, err := s.appointments.BookedLabels(ctx, profileID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked labels: %w", err)
	}

	statuses := make([]models.SlotStatus, 0, len(settings.OfferedSlots))
	for _, label := range settings.OfferedSlots {
		statuses = append(statuses, models.SlotStatus{
			Label:     label,
			Available: !booked[label],
		})
	}
	return statuses, nil
}

// ListAppointments returns the merged appointment history for a doctor
// or patient profile.
func (s *Scheduler) ListAppointments(ctx context.Context, role models.Role, rawID string) ([]models.Appointment, error) {
	profileID, err := s.resolveLenient(ctx, role, rawID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleDoctor:
		return s.appointments.ListByDoctor(ctx, profileID)
	case models.RolePatient:
		return s.appointments.ListByPatient(ctx, profileID)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, role)
	}
}
