package models

import (
	"strings"
	"time"
)

// Role distinguishes the two profile kinds an identifier can resolve to.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// User is an account record. Every doctor and patient owns exactly one.
type User struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	FullName    string    `json:"full_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Doctor is the doctor profile row. ID is the profile identifier,
// UserID the account identifier; callers may supply either.
type Doctor struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	Specialty string    `json:"specialty"`
	Hospital  string    `json:"hospital"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Patient is the patient profile row.
type Patient struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	FullName    string    `json:"full_name"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}

// Appointment is a booked doctor-time slot. AppointmentTime is the
// canonical slot key "<YYYY-MM-DD> <hh:mm> <AM|PM>"; at most one
// appointment may exist per (DoctorID, AppointmentTime) across the
// primary and fallback stores combined.
type Appointment struct {
	ID              string    `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	PatientID       string    `json:"patient_id"`
	AppointmentTime string    `json:"appointment_time"`
	Notes           string    `json:"notes"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	PatientName     string    `json:"patient_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SlotKey builds the canonical appointment time key from a date
// ("YYYY-MM-DD") and a slot label ("09:30 AM").
func SlotKey(date, label string) string {
	return date + " " + label
}

// SplitSlotKey splits an appointment time key back into date and label.
// The label may itself contain a space ("09:30 AM").
func SplitSlotKey(key string) (date, label string) {
	date, label, _ = strings.Cut(key, " ")
	return date, label
}

// Date reports the "YYYY-MM-DD" part of the appointment time.
func (a *Appointment) Date() string {
	date, _ := SplitSlotKey(a.AppointmentTime)
	return date
}

// Label reports the slot label part of the appointment time.
func (a *Appointment) Label() string {
	_, label := SplitSlotKey(a.AppointmentTime)
	return label
}

// ScheduleSettings is a doctor's booking configuration: working window,
// slot granularity, weekly days off and the curated subset of generated
// slots the doctor actually offers. Version increments on every saved
// update so concurrent edits can be detected.
type ScheduleSettings struct {
	SlotDuration int      `json:"slot_duration"`
	StartWork    string   `json:"start_work"`
	EndWork      string   `json:"end_work"`
	OffDays      []int    `json:"off_days"`
	OfferedSlots []string `json:"available_slots"`
	Version      int64    `json:"version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SlotStatus is one row of a doctor's availability listing for a date.
type SlotStatus struct {
	Label     string `json:"time"`
	Available bool   `json:"isAvailable"`
}

// IsOffDay reports whether the weekday index (0 = Sunday) is a day off.
func (s *ScheduleSettings) IsOffDay(weekday int) bool {
	for _, d := range s.OffDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Offers reports whether the label is in the doctor's offered set.
func (s *ScheduleSettings) Offers(label string) bool {
	for _, l := range s.OfferedSlots {
		if l == label {
			return true
		}
	}
	return false
}
