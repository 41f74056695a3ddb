package service

import (
	"context"
	"fmt"

	"clinicbook/internal/database"
	"clinicbook/internal/events"
	"clinicbook/internal/models"
	"clinicbook/internal/slots"
)

// SettingsView pairs a doctor's stored settings with the full slot pool
// regenerated from the current window and duration, so a settings UI
// can show which pool entries the doctor has switched off.
type SettingsView struct {
	Settings *models.ScheduleSettings `json:"schedule_settings"`
	Pool     []string                 `json:"default_all_slots"`
}

// SettingsUpdate carries a settings write. Nil slice/zero fields mean
// "use the default", mirroring what a partial update leaves unspecified.
// An explicitly empty OfferedSlots slice is preserved: after a duration
// or window change the offered set is reset, never re-mapped onto the
// new grid.
type SettingsUpdate struct {
	SlotDuration    int
	StartWork       string
	EndWork         string
	OffDays         []int
	OfferedSlots    []string
	ExpectedVersion int64
}

// GetSettings returns the doctor's settings plus the regenerated pool.
// Unknown doctors are an error; known doctors never get "not found".
func (s *Scheduler) GetSettings(ctx context.Context, doctorID string) (*SettingsView, error) {
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

	return &SettingsView{
		Settings: settings,
		Pool:     poolFor(settings),
	}, nil
}

// UpdateSettings fully replaces the doctor's settings. Unspecified
// fields default exactly as GetSettings would default them. The offered
// set must be a subset of the pool generated from the saved window and
// duration; that invariant is enforced here, at save time, and never
// re-checked lazily afterwards.
func (s *Scheduler) UpdateSettings(ctx context.Context, doctorID string, update SettingsUpdate) (*SettingsView, error) {
	profileID, err := s.resolveLenient(ctx, models.RoleDoctor, doctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.directory.GetDoctor(ctx, profileID); err != nil {
		return nil, err
	}

	defaults := database.DefaultScheduleSettings()
	next := &models.ScheduleSettings{
		SlotDuration: update.SlotDuration,
		StartWork:    update.StartWork,
		EndWork:      update.EndWork,
		OffDays:      update.OffDays,
		OfferedSlots: update.OfferedSlots,
	}
	if next.SlotDuration == 0 {
		next.SlotDuration = defaults.SlotDuration
	}
	if next.StartWork == "" {
		next.StartWork = defaults.StartWork
	}
	if next.EndWork == "" {
		next.EndWork = defaults.EndWork
	}
	if next.OffDays == nil {
		next.OffDays = defaults.OffDays
	}

	if next.SlotDuration < 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", models.ErrInvalidInput)
	}
	start := slots.ToMinutes(next.StartWork)
	end := slots.ToMinutes(next.EndWork)
	if start >= end || start < 0 || end > 24*60 {
		return nil, fmt.Errorf("%w: working window %s-%s", models.ErrInvalidInput, next.StartWork, next.EndWork)
	}
	for _, d := range next.OffDays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("%w: off day %d out of range 0-6", models.ErrInvalidInput, d)
		}
	}

	pool := slots.GeneratePool(next.SlotDuration, start, end)
	if next.OfferedSlots == nil {
		next.OfferedSlots = pool
	} else {
		inPool := make(map[string]bool, len(pool))
		for _, l := range pool {
			inPool[l] = true
		}
		for _, l := range next.OfferedSlots {
			if !inPool[l] {
				return nil, fmt.Errorf("%w: offered slot %q is not in the generated pool", models.ErrInvalidInput, l)
			}
		}
	}

	saved, err := s.settings.UpsertScheduleSettings(ctx, profileID, next, update.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	s.publish(events.SettingsUpdated, profileID, profileID, fmt.Sprintf("version %d", saved.Version))
	s.logger.Info().
		Str("doctor_id", profileID).
		Int("slot_duration", saved.SlotDuration).
		Int64("version", saved.Version).
		Msg("schedule settings updated")
	return &SettingsView{Settings: saved, Pool: poolFor(saved)}, nil
}

func poolFor(s *models.ScheduleSettings) []string {
	return slots.GeneratePool(s.SlotDuration, slots.ToMinutes(s.StartWork), slots.ToMinutes(s.EndWork))
}
