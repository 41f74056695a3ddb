package fallback

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicbook/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := zerolog.New(io.Discard)
	s, err := NewStore(filepath.Join(t.TempDir(), "appointments.json"), &logger)
	require.NoError(t, err)
	return s
}

func appt(id, doctorID, slotKey string) *models.Appointment {
	return &models.Appointment{
		ID:              id,
		DoctorID:        doctorID,
		PatientID:       "pat1",
		AppointmentTime: slotKey,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestInsertAndConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.InsertAppointment(ctx, appt("a1", "doc1", "2024-06-10 09:00 AM")))

	taken, err := s.HasConflict(ctx, "doc1", "2024-06-10 09:00 AM")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.HasConflict(ctx, "doc1", "2024-06-10 09:30 AM")
	require.NoError(t, err)
	assert.False(t, taken)

	// Same doctor+slot is rejected even in the file store.
	err = s.InsertAppointment(ctx, appt("a2", "doc1", "2024-06-10 09:00 AM"))
	assert.ErrorIs(t, err, models.ErrSlotTaken)

	// Another doctor may hold the same time.
	assert.NoError(t, s.InsertAppointment(ctx, appt("a3", "doc2", "2024-06-10 09:00 AM")))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	path := filepath.Join(dir, "appointments.json")

	s1, err := NewStore(path, &logger)
	require.NoError(t, err)
	require.NoError(t, s1.InsertAppointment(ctx, appt("a1", "doc1", "2024-06-10 09:00 AM")))

	s2, err := NewStore(path, &logger)
	require.NoError(t, err)
	appts, err := s2.ListAppointmentsByDoctor(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "a1", appts[0].ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.InsertAppointment(ctx, appt("a1", "doc1", "2024-06-10 09:00 AM")))

	found, err := s.DeleteAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.DeleteAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, found)

	taken, err := s.HasConflict(ctx, "doc1", "2024-06-10 09:00 AM")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUpdateNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.InsertAppointment(ctx, appt("a1", "doc1", "2024-06-10 09:00 AM")))

	updated, err := s.UpdateAppointmentNotes(ctx, "a1", "bring referral")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "bring referral", updated.Notes)

	missing, err := s.UpdateAppointmentNotes(ctx, "ghost", "x")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookedLabels(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.InsertAppointment(ctx, appt("a1", "doc1", "2024-06-10 09:00 AM")))
	require.NoError(t, s.InsertAppointment(ctx, appt("a2", "doc1", "2024-06-10 01:30 PM")))
	require.NoError(t, s.InsertAppointment(ctx, appt("a3", "doc1", "2024-06-11 09:00 AM")))
	require.NoError(t, s.InsertAppointment(ctx, appt("a4", "doc2", "2024-06-10 10:00 AM")))

	labels, err := s.BookedLabels(ctx, "doc1", "2024-06-10")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"09:00 AM", "01:30 PM"}, labels)
}

func TestListByPatient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := appt("a1", "doc1", "2024-06-10 09:00 AM")
	a.PatientID = "pat9"
	require.NoError(t, s.InsertAppointment(ctx, a))

	appts, err := s.ListAppointmentsByPatient(ctx, "pat9")
	require.NoError(t, err)
	require.Len(t, appts, 1)

	appts, err = s.ListAppointmentsByPatient(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, appts)
}
