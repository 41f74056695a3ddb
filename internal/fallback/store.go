// Package fallback implements the secondary appointment store: a local
// JSON file that stays writable when the primary database is
// unreachable. Records written here are merged into every read so a
// booking accepted in degraded mode is still visible to later conflict
// checks.
package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"clinicbook/internal/models"
)

// Store is a mutex-guarded JSON file of appointment records.
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zerolog.Logger
}

// NewStore creates the store, ensuring the parent directory exists.
func NewStore(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create fallback dir: %w", err)
	}
	return &Store{path: path, logger: logger}, nil
}

func (s *Store) load() ([]models.Appointment, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fallback store: %w", err)
	}

	var appts []models.Appointment
	if err := json.Unmarshal(data, &appts); err != nil {
		return nil, fmt.Errorf("decode fallback store: %w", err)
	}
	return appts, nil
}

func (s *Store) save(appts []models.Appointment) error {
	if appts == nil {
		appts = []models.Appointment{}
	}
	data, err := json.MarshalIndent(appts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fallback store: %w", err)
	}

	// Write-then-rename keeps the file readable if the process dies
	// mid-write.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write fallback store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace fallback store: %w", err)
	}
	return nil
}

// InsertAppointment appends a record. The caller supplies the id; ids
// are uuids so records never collide with primary-store rows.
func (s *Store) InsertAppointment(ctx context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range appts {
		if existing.DoctorID == a.DoctorID && existing.AppointmentTime == a.AppointmentTime {
			return models.ErrSlotTaken
		}
	}

	appts = append(appts, *a)
	return s.save(appts)
}

// DeleteAppointment removes the record with the given id, reporting
// whether it existed.
func (s *Store) DeleteAppointment(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.load()
	if err != nil {
		return false, err
	}

	kept := appts[:0]
	found := false
	for _, a := range appts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return false, nil
	}
	return true, s.save(kept)
}

// UpdateAppointmentNotes replaces the notes of a record. Returns
// (nil, nil) when the id is unknown to this store.
func (s *Store) UpdateAppointmentNotes(ctx context.Context, id, notes string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.load()
	if err != nil {
		return nil, err
	}

	for i := range appts {
		if appts[i].ID == id {
			appts[i].Notes = notes
			if err := s.save(appts); err != nil {
				return nil, err
			}
			a := appts[i]
			return &a, nil
		}
	}
	return nil, nil
}

// ListAppointmentsByDoctor returns the doctor's records.
func (s *Store) ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return s.list(func(a *models.Appointment) bool { return a.DoctorID == doctorID })
}

// ListAppointmentsByPatient returns the patient's records.
func (s *Store) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return s.list(func(a *models.Appointment) bool { return a.PatientID == patientID })
}

func (s *Store) list(match func(*models.Appointment) bool) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []models.Appointment
	for i := range appts {
		if match(&appts[i]) {
			out = append(out, appts[i])
		}
	}
	return out, nil
}

// HasConflict reports whether a record occupies the doctor+slot key.
func (s *Store) HasConflict(ctx context.Context, doctorID, slotKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.load()
	if err != nil {
		return false, err
	}
	for _, a := range appts {
		if a.DoctorID == doctorID && a.AppointmentTime == slotKey {
			return true, nil
		}
	}
	return false, nil
}

// BookedLabels returns the labels booked for the doctor on the date.
func (s *Store) BookedLabels(ctx context.Context, doctorID, date string) ([]string, error) {
	appts, err := s.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, a := range appts {
		if a.Date() == date {
			labels = append(labels, a.Label())
		}
	}
	return labels, nil
}

// Healthy reports whether the backing file is usable.
func (s *Store) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err == nil
}
