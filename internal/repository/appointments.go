// Package repository merges the primary database and the fallback file
// store into one appointment source of truth. Primary errors are
// swallowed and substituted with the fallback wherever a fallback path
// exists; a slot-taken rejection is a business answer and is never
// swallowed.
package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
)

// Store is the appointment surface both physical stores implement.
type Store interface {
	InsertAppointment(ctx context.Context, a *models.Appointment) error
	DeleteAppointment(ctx context.Context, id string) (bool, error)
	UpdateAppointmentNotes(ctx context.Context, id, notes string) (*models.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	HasConflict(ctx context.Context, doctorID, slotKey string) (bool, error)
	BookedLabels(ctx context.Context, doctorID, date string) ([]string, error)
}

const defaultRecoveryInterval = time.Minute

// AppointmentRepository is the dual-store repository. It tracks primary
// health so a dead database is not retried on every call; after the
// recovery interval the next operation probes the primary again.
type AppointmentRepository struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown           atomic.Bool
	mu               sync.Mutex
	lastCheck        time.Time
	recoveryInterval time.Duration
}

// NewAppointmentRepository builds the repository over the two stores.
func NewAppointmentRepository(primary, fallback Store, logger *zerolog.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: defaultRecoveryInterval,
	}
}

// primaryUsable reports whether the primary should be attempted now.
func (r *AppointmentRepository) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) >= r.recoveryInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *AppointmentRepository) markDown(err error) {
	if r.isDown.CompareAndSwap(false, true) {
		metrics.IncPrimaryOutage()
		r.logger.Warn().Err(err).Msg("primary store unreachable, degraded mode")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *AppointmentRepository) markUp() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("primary store recovered")
	}
}

// FindConflict reports whether either store holds an appointment for
// the doctor+slot key. The fallback is checked first (cheap and local);
// when the primary is unreachable the fallback-only answer is treated
// as authoritative for this check.
func (r *AppointmentRepository) FindConflict(ctx context.Context, doctorID, slotKey string) (bool, error) {
	taken, err := r.fallback.HasConflict(ctx, doctorID, slotKey)
	if err != nil {
		return false, err
	}
	if taken {
		return true, nil
	}

	if !r.primaryUsable() {
		return false, nil
	}

	taken, err = r.primary.HasConflict(ctx, doctorID, slotKey)
	if err != nil {
		r.markDown(err)
		return false, nil
	}
	r.markUp()
	return taken, nil
}

// Insert writes the appointment to the primary store, diverting to the
// fallback only when the primary is unreachable. A uniqueness violation
// from the primary surfaces as ErrSlotTaken, never as an outage.
func (r *AppointmentRepository) Insert(ctx context.Context, a *models.Appointment) (store string, err error) {
	if r.primaryUsable() {
		err = r.primary.InsertAppointment(ctx, a)
		if err == nil {
			r.markUp()
			return "primary", nil
		}
		if errors.Is(err, models.ErrSlotTaken) {
			r.markUp()
			return "", err
		}
		r.markDown(err)
	}

	if err := r.fallback.InsertAppointment(ctx, a); err != nil {
		if errors.Is(err, models.ErrSlotTaken) {
			return "", err
		}
		return "", models.ErrStoreUnavailable
	}
	metrics.IncFallbackWrite()
	r.logger.Info().Str("appointment_id", a.ID).Msg("appointment written to fallback store")
	return "fallback", nil
}

// ListByDoctor merges both stores' records for the doctor, keyed by id.
func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return r.mergeLists(ctx,
		func(s Store) ([]models.Appointment, error) { return s.ListAppointmentsByDoctor(ctx, doctorID) })
}

// ListByPatient merges both stores' records for the patient.
func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return r.mergeLists(ctx,
		func(s Store) ([]models.Appointment, error) { return s.ListAppointmentsByPatient(ctx, patientID) })
}

func (r *AppointmentRepository) mergeLists(ctx context.Context, list func(Store) ([]models.Appointment, error)) ([]models.Appointment, error) {
	fromFallback, err := list(r.fallback)
	if err != nil {
		return nil, err
	}

	merged := fromFallback
	seen := make(map[string]bool, len(merged))
	for _, a := range merged {
		seen[a.ID] = true
	}

	if r.primaryUsable() {
		fromPrimary, err := list(r.primary)
		if err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			for _, a := range fromPrimary {
				if !seen[a.ID] {
					merged = append(merged, a)
				}
			}
		}
	}
	return merged, nil
}

// BookedLabels returns the union of booked labels for the doctor on the
// date across both stores.
func (r *AppointmentRepository) BookedLabels(ctx context.Context, doctorID, date string) (map[string]bool, error) {
	labels, err := r.fallback.BookedLabels(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	booked := make(map[string]bool, len(labels))
	for _, l := range labels {
		booked[l] = true
	}

	if r.primaryUsable() {
		labels, err = r.primary.BookedLabels(ctx, doctorID, date)
		if err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			for _, l := range labels {
				booked[l] = true
			}
		}
	}
	return booked, nil
}

// Remove deletes the appointment from whichever stores hold it. Both
// stores are attempted unconditionally; ErrNotFound only when neither
// had the id.
func (r *AppointmentRepository) Remove(ctx context.Context, id string) error {
	removed := false

	if r.primaryUsable() {
		found, err := r.primary.DeleteAppointment(ctx, id)
		if err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			removed = removed || found
		}
	}

	found, err := r.fallback.DeleteAppointment(ctx, id)
	if err != nil {
		if !removed {
			return err
		}
	} else {
		removed = removed || found
	}

	if !removed {
		return models.ErrNotFound
	}
	return nil
}

// UpdateNotes mutates the notes in whichever stores hold the id and
// returns the updated record; ErrNotFound only when neither had it.
func (r *AppointmentRepository) UpdateNotes(ctx context.Context, id, notes string) (*models.Appointment, error) {
	var updated *models.Appointment

	if r.primaryUsable() {
		a, err := r.primary.UpdateAppointmentNotes(ctx, id, notes)
		if err != nil {
			r.markDown(err)
		} else {
			r.markUp()
			if a != nil {
				updated = a
			}
		}
	}

	a, err := r.fallback.UpdateAppointmentNotes(ctx, id, notes)
	if err != nil {
		if updated == nil {
			return nil, err
		}
	} else if a != nil {
		updated = a
	}

	if updated == nil {
		return nil, models.ErrNotFound
	}
	return updated, nil
}

// Degraded reports whether the repository is currently avoiding the
// primary store.
func (r *AppointmentRepository) Degraded() bool {
	return r.isDown.Load()
}
