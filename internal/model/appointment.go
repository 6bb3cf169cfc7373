package model

import "time"

// Appointment statuses. An appointment starts as scheduled and can only move
// to completed or cancelled; both are terminal.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is a single booked procedure for a client.
type Appointment struct {
	ID           int64     `json:"id"`
	ClientID     int64     `json:"client_id"`
	ProcedureID  int64     `json:"procedure_id"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`

	// Filled by joined queries.
	ProcedureName string  `json:"procedure_name,omitempty"`
	Duration      float64 `json:"duration,omitempty"` // hours
	ClientName    string  `json:"client_name,omitempty"`
	ClientPhone   string  `json:"client_phone,omitempty"`
	TelegramID    int64   `json:"telegram_id,omitempty"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusScheduled
}

// CanTransition reports whether a status change is allowed. Only
// scheduled appointments may change state.
func CanTransition(from, to string) bool {
	if from != StatusScheduled {
		return false
	}
	return to == StatusCompleted || to == StatusCancelled
}
