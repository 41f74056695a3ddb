package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotKeyRoundTrip(t *testing.T) {
	key := SlotKey("2024-06-10", "09:30 AM")
	assert.Equal(t, "2024-06-10 09:30 AM", key)

	date, label := SplitSlotKey(key)
	assert.Equal(t, "2024-06-10", date)
	assert.Equal(t, "09:30 AM", label)
}

func TestAppointmentDateLabel(t *testing.T) {
	a := Appointment{AppointmentTime: "2024-06-10 02:00 PM"}
	assert.Equal(t, "2024-06-10", a.Date())
	assert.Equal(t, "02:00 PM", a.Label())
}

func TestIsOffDay(t *testing.T) {
	s := ScheduleSettings{OffDays: []int{5, 6}}
	assert.True(t, s.IsOffDay(5))
	assert.True(t, s.IsOffDay(6))
	assert.False(t, s.IsOffDay(0))
	assert.False(t, s.IsOffDay(3))
}

func TestOffers(t *testing.T) {
	s := ScheduleSettings{OfferedSlots: []string{"09:00 AM", "09:30 AM"}}
	assert.True(t, s.Offers("09:30 AM"))
	assert.False(t, s.Offers("10:00 AM"))

	empty := ScheduleSettings{OfferedSlots: []string{}}
	assert.False(t, empty.Offers("09:00 AM"))
}
