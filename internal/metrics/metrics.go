package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "booking_created_total",
			Help:      "Count of appointments created by destination store.",
		},
		[]string{"store"},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "booking_conflict_total",
			Help:      "Count of bookings rejected because the slot was taken.",
		},
	)

	fallbackWrite = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "fallback_write_total",
			Help:      "Count of writes diverted to the fallback store.",
		},
	)

	primaryOutage = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "primary_outage_total",
			Help:      "Count of detected primary store outages.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinicbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingConflict, fallbackWrite, primaryOutage, httpRequests)
	})
}

func IncBookingCreated(store string) {
	bookingCreated.WithLabelValues(store).Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncFallbackWrite() {
	fallbackWrite.Inc()
}

func IncPrimaryOutage() {
	primaryOutage.Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
