package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicbook/internal/database"
	"clinicbook/internal/fallback"
	"clinicbook/internal/models"
	"clinicbook/internal/repository"
	"clinicbook/internal/service"
	"clinicbook/internal/slotlock"
)

func setupTestServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(filepath.Join(dir, "clinicbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fb, err := fallback.NewStore(filepath.Join(dir, "appointments.json"), &logger)
	require.NoError(t, err)

	repo := repository.NewAppointmentRepository(db, fb, &logger)
	scheduler := service.NewScheduler(db, db, repo, slotlock.Noop{}, &logger)

	srv := NewHTTPServer(Options{Port: 0, RatePerMinute: 6000, Burst: 100}, scheduler, db, fb, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func registerDoctor(t *testing.T, ts *httptest.Server, phone string) models.Doctor {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/doctors", map[string]string{
		"phone_number": phone,
		"full_name":    "Dr. Mora",
		"specialty":    "Cardiology",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var d models.Doctor
	require.NoError(t, json.Unmarshal(body, &d))
	return d
}

func registerPatient(t *testing.T, ts *httptest.Server, phone string) models.Patient {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/patients", map[string]string{
		"phone_number": phone,
		"full_name":    "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var p models.Patient
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

// 2024-06-10 is a Monday, outside the default Friday/Saturday off days.
const testDate = "2024-06-10"

func TestBookThenSlotsShowsUnavailable(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")

	// Narrow the working window so the listing is small.
	resp, body := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/doctors/%s/settings", ts.URL, doctor.ID), map[string]interface{}{
		"slot_duration": 30,
		"start_work":    "09:00",
		"end_work":      "10:00",
		"off_days":      []int{5, 6},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  doctor.ID,
		"patient_id": patient.ID,
		"date":       testDate,
		"time":       "09:00 AM",
		"notes":      "first visit",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, testDate+" 09:00 AM", appt.AppointmentTime)

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/doctors/%s/slots?date=%s", ts.URL, doctor.ID, testDate), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []models.SlotStatus
	require.NoError(t, json.Unmarshal(body, &statuses))
	assert.Equal(t, []models.SlotStatus{
		{Label: "09:00 AM", Available: false},
		{Label: "09:30 AM", Available: true},
	}, statuses)
}

func TestDoubleBookingRejected(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")
	other := registerPatient(t, ts, "+300")

	book := func(patientID string) *http.Response {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
			"doctor_id":  doctor.ID,
			"patient_id": patientID,
			"date":       testDate,
			"time":       "09:00 AM",
		})
		return resp
	}

	assert.Equal(t, http.StatusCreated, book(patient.ID).StatusCode)
	assert.Equal(t, http.StatusConflict, book(other.ID).StatusCode)
}

func TestBookingWithAccountIDs(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")

	// Account ids resolve to profile ids before the write.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  doctor.UserID,
		"patient_id": patient.UserID,
		"date":       testDate,
		"time":       "10:00 AM",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, doctor.ID, appt.DoctorID)
	assert.Equal(t, patient.ID, appt.PatientID)
}

func TestBookingUnknownDoctorRejected(t *testing.T) {
	ts, _ := setupTestServer(t)
	patient := registerPatient(t, ts, "+200")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  "ghost",
		"patient_id": patient.ID,
		"date":       testDate,
		"time":       "09:00 AM",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOffDayReturnsEmpty(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")

	// 2024-06-14 is a Friday, in the default off days.
	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/doctors/%s/slots?date=2024-06-14", ts.URL, doctor.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []models.SlotStatus
	require.NoError(t, json.Unmarshal(body, &statuses))
	assert.Empty(t, statuses)
}

func TestDeleteFreesSlot(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  doctor.ID,
		"patient_id": patient.ID,
		"date":       testDate,
		"time":       "09:00 AM",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/appointments/"+appt.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/doctors/%s/slots?date=%s", ts.URL, doctor.ID, testDate), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var statuses []models.SlotStatus
	require.NoError(t, json.Unmarshal(body, &statuses))
	for _, st := range statuses {
		if st.Label == "09:00 AM" {
			assert.True(t, st.Available)
		}
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateNotes(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  doctor.ID,
		"patient_id": patient.ID,
		"date":       testDate,
		"time":       "09:00 AM",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var appt models.Appointment
	require.NoError(t, json.Unmarshal(body, &appt))

	resp, body = doJSON(t, http.MethodPut, ts.URL+"/api/appointments/"+appt.ID, map[string]string{
		"notes": "bring referral",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Appointment
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "bring referral", updated.Notes)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/appointments/ghost", map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSettingsDefaults(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/doctors/%s/settings", ts.URL, doctor.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		Settings models.ScheduleSettings `json:"schedule_settings"`
		Pool     []string                `json:"default_all_slots"`
	}
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, 30, view.Settings.SlotDuration)
	assert.Equal(t, "09:00", view.Settings.StartWork)
	assert.Equal(t, "17:00", view.Settings.EndWork)
	assert.Len(t, view.Pool, 16)

	// Unknown doctor is an error, not defaults.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/doctors/ghost/settings", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAppointmentsByRole(t *testing.T) {
	ts, _ := setupTestServer(t)
	doctor := registerDoctor(t, ts, "+100")
	patient := registerPatient(t, ts, "+200")

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", map[string]string{
		"doctor_id":  doctor.ID,
		"patient_id": patient.ID,
		"date":       testDate,
		"time":       "09:00 AM",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Both profile and account ids work for listing.
	for _, id := range []string{doctor.ID, doctor.UserID} {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/appointments/doctor/"+id, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var appts []models.Appointment
		require.NoError(t, json.Unmarshal(body, &appts))
		require.Len(t, appts, 1)
		assert.Equal(t, "Ana", appts[0].PatientName)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/appointments/patient/"+patient.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var appts []models.Appointment
	require.NoError(t, json.Unmarshal(body, &appts))
	require.Len(t, appts, 1)
	assert.Equal(t, "Dr. Mora", appts[0].DoctorName)
}

func TestBookingValidation(t *testing.T) {
	ts, _ := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{
			name: "missing fields",
			body: map[string]string{"doctor_id": "d"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad date",
			body: map[string]string{"doctor_id": "d", "patient_id": "p", "date": "10.06.2024", "time": "09:00 AM"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad label",
			body: map[string]string{"doctor_id": "d", "patient_id": "p", "date": testDate, "time": "9am"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHealth(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "online", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, "available", health.Fallback)
}
