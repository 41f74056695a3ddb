package api

import (
	"context"
	"net/http"
	"time"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/service"
)

// RegisterRequest is the body for POST /api/doctors and /api/patients.
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
	Specialty   string `json:"specialty,omitempty"`
	Hospital    string `json:"hospital,omitempty"`
	Location    string `json:"location,omitempty"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func (s *HTTPServer) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("register_doctor")

	var req RegisterRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PhoneNumber == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "phone_number and full_name are required")
		return
	}

	doctor, err := s.db.CreateDoctor(r.Context(), req.PhoneNumber, req.FullName, req.Specialty, req.Hospital, req.Location)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doctor)
}

func (s *HTTPServer) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("register_patient")

	var req RegisterRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PhoneNumber == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "phone_number and full_name are required")
		return
	}

	patient, err := s.db.CreatePatient(r.Context(), req.PhoneNumber, req.FullName, req.Gender, req.DateOfBirth)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

func (s *HTTPServer) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_doctors")

	doctors, err := s.db.ListDoctors(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	writeJSON(w, http.StatusOK, doctors)
}

func (s *HTTPServer) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_doctor")

	res, err := s.scheduler.Resolve(r.Context(), models.RoleDoctor, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	doctor, err := s.db.GetDoctor(r.Context(), res.ProfileID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

func (s *HTTPServer) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_slots")

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	statuses, err := s.scheduler.ListSlots(r.Context(), r.PathValue("id"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if statuses == nil {
		statuses = []models.SlotStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_settings")

	view, err := s.scheduler.GetSettings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SettingsRequest is the body for PUT /api/doctors/{id}/settings.
// Omitted fields take the documented defaults; an explicitly empty
// available_slots list stays empty.
type SettingsRequest struct {
	SlotDuration    int      `json:"slot_duration,omitempty"`
	StartWork       string   `json:"start_work,omitempty"`
	EndWork         string   `json:"end_work,omitempty"`
	OffDays         []int    `json:"off_days,omitempty"`
	AvailableSlots  []string `json:"available_slots,omitempty"`
	ExpectedVersion int64    `json:"expected_version,omitempty"`
}

func (s *HTTPServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("put_settings")

	var req SettingsRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := s.scheduler.UpdateSettings(r.Context(), r.PathValue("id"), service.SettingsUpdate{
		SlotDuration:    req.SlotDuration,
		StartWork:       req.StartWork,
		EndWork:         req.EndWork,
		OffDays:         req.OffDays,
		OfferedSlots:    req.AvailableSlots,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// BookingRequest is the body for POST /api/appointments.
type BookingRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
}

func (s *HTTPServer) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("book_appointment")

	if !s.limiter.allow(r) {
		writeError(w, http.StatusTooManyRequests, "too many booking attempts, slow down")
		return
	}

	var req BookingRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DoctorID == "" || req.PatientID == "" || req.Date == "" || req.Time == "" {
		writeError(w, http.StatusBadRequest, "doctor_id, patient_id, date and time are required")
		return
	}

	appt, err := s.scheduler.Book(r.Context(), req.DoctorID, req.PatientID, req.Date, req.Time, req.Notes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("doctor_appointments")
	s.listAppointments(w, r, models.RoleDoctor)
}

func (s *HTTPServer) handlePatientAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("patient_appointments")
	s.listAppointments(w, r, models.RolePatient)
}

func (s *HTTPServer) listAppointments(w http.ResponseWriter, r *http.Request, role models.Role) {
	appts, err := s.scheduler.ListAppointments(r.Context(), role, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (s *HTTPServer) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("delete_appointment")

	if err := s.scheduler.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
}

// NotesRequest is the body for PUT /api/appointments/{id}.
type NotesRequest struct {
	Notes string `json:"notes"`
}

func (s *HTTPServer) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_appointment")

	var req NotesRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := s.scheduler.UpdateNotes(r.Context(), r.PathValue("id"), req.Notes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_export")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="clinicbook_export.xlsx"`)
	if err := s.exporter.Export(r.Context(), w); err != nil {
		s.logger.Error().Err(err).Msg("admin export failed")
	}
}

// HealthResponse reports per-dependency status.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Fallback  string `json:"fallback"`
	Redis     string `json:"redis,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "online",
		Database:  "connected",
		Fallback:  "available",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.db.Ping(ctx); err != nil {
		resp.Database = "disconnected"
	}
	if !s.fallback.Healthy() {
		resp.Fallback = "unavailable"
	}
	if s.redis != nil {
		resp.Redis = "connected"
		if err := s.redis.Ping(ctx); err != nil {
			resp.Redis = "disconnected"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
