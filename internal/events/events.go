// Package events provides in-process pub/sub for scheduling events.
// The scheduler publishes after each committed state change; handlers
// run synchronously, so they must be cheap (logging, counters).
package events

import (
	"sync"
	"time"
)

// Event types published by the scheduler.
const (
	AppointmentBooked    = "appointment.booked"
	AppointmentCancelled = "appointment.cancelled"
	SettingsUpdated      = "schedule.settings_updated"
)

// Event describes one scheduling state change.
type Event struct {
	Type      string
	DoctorID  string
	SubjectID string // appointment id, or doctor id for settings changes
	Detail    string
	CreatedAt time.Time
}

// Handler reacts to an event. Errors are the handler's problem; the
// publisher does not retry.
type Handler func(event Event)

// Bus fans events out to subscribed handlers.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
