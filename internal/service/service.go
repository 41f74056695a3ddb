// Package service implements the scheduling core: identifier
// resolution, availability listing, settings management and the
// booking write path.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"clinicbook/internal/events"
	"clinicbook/internal/models"
	"clinicbook/internal/slotlock"
)

// Directory looks up and resolves doctor/patient profiles.
type Directory interface {
	GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error)
	ResolveDoctorID(ctx context.Context, rawID string) (string, bool, error)
	ResolvePatientID(ctx context.Context, rawID string) (string, bool, error)
}

// SettingsStore persists per-doctor schedule settings.
type SettingsStore interface {
	GetScheduleSettings(ctx context.Context, doctorID string) (*models.ScheduleSettings, error)
	UpsertScheduleSettings(ctx context.Context, doctorID string, s *models.ScheduleSettings, expectedVersion int64) (*models.ScheduleSettings, error)
}

// Appointments is the dual-store repository surface the services use.
type Appointments interface {
	FindConflict(ctx context.Context, doctorID, slotKey string) (bool, error)
	Insert(ctx context.Context, a *models.Appointment) (store string, err error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	BookedLabels(ctx context.Context, doctorID, date string) (map[string]bool, error)
	Remove(ctx context.Context, id string) error
	UpdateNotes(ctx context.Context, id, notes string) (*models.Appointment, error)
}

// Scheduler bundles the scheduling operations behind one service.
type Scheduler struct {
	directory    Directory
	settings     SettingsStore
	appointments Appointments
	locker       slotlock.Locker
	bus          *events.Bus
	logger       *zerolog.Logger
}

// NewScheduler wires the scheduling service. locker may be
// slotlock.Noop{} when Redis is not configured.
func NewScheduler(directory Directory, settings SettingsStore, appointments Appointments, locker slotlock.Locker, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		directory:    directory,
		settings:     settings,
		appointments: appointments,
		locker:       locker,
		logger:       logger,
	}
}

// UseEventBus makes the scheduler publish an event after each
// committed state change. Without a bus nothing is published.
func (s *Scheduler) UseEventBus(bus *events.Bus) {
	s.bus = bus
}

func (s *Scheduler) publish(eventType, doctorID, subjectID, detail string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:      eventType,
		DoctorID:  doctorID,
		SubjectID: subjectID,
		Detail:    detail,
	})
}
