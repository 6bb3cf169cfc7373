package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"scheduled to completed", StatusScheduled, StatusCompleted, true},
		{"scheduled to cancelled", StatusScheduled, StatusCancelled, true},
		{"completed is terminal", StatusCompleted, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusCompleted, false},
		{"no self transition", StatusScheduled, StatusScheduled, false},
		{"unknown source", "pending", StatusCompleted, false},
		{"unknown target", StatusScheduled, "archived", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	if !(&Appointment{Status: StatusScheduled}).IsActive() {
		t.Error("scheduled appointment must be active")
	}
	if (&Appointment{Status: StatusCancelled}).IsActive() {
		t.Error("cancelled appointment must not be active")
	}
	if (&Appointment{Status: StatusCompleted}).IsActive() {
		t.Error("completed appointment must not be active")
	}
}
