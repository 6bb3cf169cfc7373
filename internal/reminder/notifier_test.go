package reminder

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/model"
)

type fakeStore struct {
	pending []model.Appointment
	marked  []int64
	loadErr error
}

func (s *fakeStore) PendingReminders(_ context.Context, _, _ time.Time) ([]model.Appointment, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.pending, nil
}

func (s *fakeStore) MarkReminderSent(_ context.Context, id int64) error {
	s.marked = append(s.marked, id)
	return nil
}

type fakeSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (s *fakeSender) SendReminder(_ context.Context, chatID int64, _ model.Appointment) error {
	if s.failFor[chatID] {
		return errors.New("chat blocked")
	}
	s.sent = append(s.sent, chatID)
	return nil
}

func newTestNotifier(store *fakeStore, sender *fakeSender) *Notifier {
	cfg := Config{DayBefore: "10:00", DayOf: "08:00", SendsPerSecond: 1000}
	return New(store, sender, cfg, time.UTC, zerolog.New(io.Discard))
}

func pendingAppointment(id, chatID int64) model.Appointment {
	return model.Appointment{
		ID:            id,
		TelegramID:    chatID,
		Date:          time.Now().Add(20 * time.Hour),
		Status:        model.StatusScheduled,
		ProcedureName: "Биоревитализация",
	}
}

func TestRunOnceSendsAndMarks(t *testing.T) {
	store := &fakeStore{pending: []model.Appointment{
		pendingAppointment(1, 100),
		pendingAppointment(2, 200),
	}}
	sender := &fakeSender{}

	newTestNotifier(store, sender).RunOnce(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("sent = %v, want 2 deliveries", sender.sent)
	}
	if len(store.marked) != 2 {
		t.Fatalf("marked = %v, want both flagged", store.marked)
	}
}

func TestRunOnceFailureDoesNotStopBatch(t *testing.T) {
	store := &fakeStore{pending: []model.Appointment{
		pendingAppointment(1, 100),
		pendingAppointment(2, 200),
		pendingAppointment(3, 300),
	}}
	sender := &fakeSender{failFor: map[int64]bool{200: true}}

	newTestNotifier(store, sender).RunOnce(context.Background())

	if len(sender.sent) != 2 {
		t.Errorf("sent = %v, want the two deliverable chats", sender.sent)
	}
	// The failed appointment is flagged too: no redelivery on the next
	// trigger.
	if len(store.marked) != 3 {
		t.Errorf("marked = %v, want all three flagged", store.marked)
	}
}

func TestRunOnceEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{}

	newTestNotifier(store, sender).RunOnce(context.Background())

	if len(sender.sent) != 0 || len(store.marked) != 0 {
		t.Error("empty batch must not send or mark anything")
	}
}

func TestRunOnceLoadErrorAborts(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("db gone")}
	sender := &fakeSender{}

	newTestNotifier(store, sender).RunOnce(context.Background())

	if len(sender.sent) != 0 {
		t.Error("load failure must abort the run")
	}
}

func TestRunOnceCancelledContext(t *testing.T) {
	store := &fakeStore{pending: []model.Appointment{
		pendingAppointment(1, 100),
	}}
	sender := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	newTestNotifier(store, sender).RunOnce(ctx)

	if len(sender.sent) != 0 {
		t.Error("cancelled context must stop delivery")
	}
}

func TestCronSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10:00", want: "0 10 * * *"},
		{in: "08:30", want: "30 8 * * *"},
		{in: "00:05", want: "5 0 * * *"},
		{in: "25:00", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := cronSpec(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("cronSpec(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("cronSpec(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("cronSpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
