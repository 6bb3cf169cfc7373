package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking_bot",
			Name:      "appointment_created_total",
			Help:      "Count of appointments created.",
		},
	)

	appointmentStatusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_bot",
			Name:      "appointment_status_changed_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"status"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_bot",
			Name:      "reminders_sent_total",
			Help:      "Count of reminder delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)

	blackoutChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking_bot",
			Name:      "blackout_changed_total",
			Help:      "Count of blackout registry mutations by action.",
		},
		[]string{"action"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentCreated, appointmentStatusChanged, remindersSent, blackoutChanged)
	})
}

func IncAppointmentCreated() {
	appointmentCreated.Inc()
}

func IncAppointmentStatusChanged(status string) {
	appointmentStatusChanged.WithLabelValues(status).Inc()
}

func IncReminderSent(outcome string) {
	remindersSent.WithLabelValues(outcome).Inc()
}

func IncBlackoutChanged(action string) {
	blackoutChanged.WithLabelValues(action).Inc()
}
