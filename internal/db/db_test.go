package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kmvit/booking-bot/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func seedClientAndProcedure(t *testing.T, database *DB) (*model.Client, model.Procedure) {
	t.Helper()
	ctx := context.Background()
	client, err := database.UpsertClient(ctx, 1001, "testuser", "Мария")
	if err != nil {
		t.Fatalf("upsert client: %v", err)
	}
	if err := database.SeedProcedures(ctx); err != nil {
		t.Fatalf("seed procedures: %v", err)
	}
	procedures, err := database.ListProcedures(ctx)
	if err != nil || len(procedures) == 0 {
		t.Fatalf("list procedures: %v", err)
	}
	return client, procedures[0]
}

func createAppointment(t *testing.T, database *DB, clientID, procedureID int64, date time.Time) *model.Appointment {
	t.Helper()
	a := &model.Appointment{ClientID: clientID, ProcedureID: procedureID, Date: date}
	if err := database.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func TestUpsertClientIdempotent(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	first, err := database.UpsertClient(ctx, 42, "alice", "Алиса")
	if err != nil {
		t.Fatal(err)
	}
	second, err := database.UpsertClient(ctx, 42, "alice_new", "Алиса Н.")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("upsert created a second row: %d vs %d", first.ID, second.ID)
	}
	if second.Username != "alice_new" {
		t.Errorf("username not updated: %q", second.Username)
	}
}

func TestGetClientMissingReturnsNil(t *testing.T) {
	database := newTestDB(t)
	client, err := database.GetClientByTelegramID(context.Background(), 999)
	if err != nil {
		t.Fatal(err)
	}
	if client != nil {
		t.Errorf("expected nil for missing client, got %+v", client)
	}
}

func TestSeedProceduresOnlyOnce(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.SeedProcedures(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := database.ListProcedures(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := database.SeedProcedures(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := database.ListProcedures(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Errorf("seeding must be one-time: %d then %d procedures", len(first), len(second))
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)

	date := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	a := createAppointment(t, database, client.ID, procedure.ID, date)

	if a.ID == 0 {
		t.Fatal("id not assigned on insert")
	}
	if a.Status != model.StatusScheduled {
		t.Fatalf("new appointment status = %q", a.Status)
	}

	loaded, err := database.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("appointment not found after insert")
	}
	if loaded.ProcedureName != procedure.Name {
		t.Errorf("join missing procedure name: %q", loaded.ProcedureName)
	}
	if loaded.Duration != procedure.Duration {
		t.Errorf("join duration = %v, want %v", loaded.Duration, procedure.Duration)
	}
	if loaded.TelegramID != client.TelegramID {
		t.Errorf("join telegram id = %d, want %d", loaded.TelegramID, client.TelegramID)
	}
}

func TestUpdateAppointmentStatusGuard(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)
	a := createAppointment(t, database, client.ID, procedure.ID, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))

	ok, err := database.UpdateAppointmentStatus(ctx, a.ID, model.StatusScheduled, model.StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("scheduled -> completed must succeed")
	}

	// Terminal states stay terminal.
	ok, err = database.UpdateAppointmentStatus(ctx, a.ID, model.StatusScheduled, model.StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("completed appointment must not transition again")
	}

	ok, err = database.UpdateAppointmentStatus(ctx, 9999, model.StatusScheduled, model.StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("missing appointment must report false")
	}
}

func TestDeleteAppointment(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)
	a := createAppointment(t, database, client.ID, procedure.ID, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))

	ok, err := database.DeleteAppointment(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("delete of existing appointment must report true")
	}

	ok, err = database.DeleteAppointment(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("second delete must report false")
	}
}

func TestListUpcomingFilters(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)
	other, err := database.UpsertClient(ctx, 1002, "other", "Ольга")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	createAppointment(t, database, client.ID, procedure.ID, now.AddDate(0, 0, -2))
	future1 := createAppointment(t, database, client.ID, procedure.ID, now.AddDate(0, 0, 1))
	future2 := createAppointment(t, database, other.ID, procedure.ID, now.AddDate(0, 0, 2))
	cancelled := createAppointment(t, database, client.ID, procedure.ID, now.AddDate(0, 0, 3))
	if _, err := database.UpdateAppointmentStatus(ctx, cancelled.ID, model.StatusScheduled, model.StatusCancelled); err != nil {
		t.Fatal(err)
	}

	all, err := database.ListUpcoming(ctx, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 upcoming for all clients, got %d", len(all))
	}
	if all[0].ID != future1.ID || all[1].ID != future2.ID {
		t.Errorf("upcoming not ordered by date: %v", []int64{all[0].ID, all[1].ID})
	}

	mine, err := database.ListUpcoming(ctx, client.ID, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != future1.ID {
		t.Errorf("client filter broken: %+v", mine)
	}
}

func TestScheduledOnDate(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	onDay := createAppointment(t, database, client.ID, procedure.ID, day.Add(10*time.Hour))
	createAppointment(t, database, client.ID, procedure.ID, day.AddDate(0, 0, 1).Add(10*time.Hour))

	got, err := database.ScheduledOnDate(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != onDay.ID {
		t.Fatalf("expected only the same-day appointment, got %+v", got)
	}
	if got[0].Duration != procedure.Duration {
		t.Errorf("duration must come joined for occupancy math, got %v", got[0].Duration)
	}
}

// Two inserts for the same slot both succeed: the store keeps no slot
// uniqueness, the service layer owns that policy.
func TestCreateAppointmentAllowsSameSlot(t *testing.T) {
	database := newTestDB(t)
	client, procedure := seedClientAndProcedure(t, database)

	date := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	first := createAppointment(t, database, client.ID, procedure.ID, date)
	second := createAppointment(t, database, client.ID, procedure.ID, date)
	if first.ID == second.ID {
		t.Error("expected two distinct rows")
	}
}

func TestReminderFlow(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	client, procedure := seedClientAndProcedure(t, database)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	a := createAppointment(t, database, client.ID, procedure.ID, day.Add(10*time.Hour))

	pending, err := database.PendingReminders(ctx, day, day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("expected the appointment pending, got %+v", pending)
	}

	if err := database.MarkReminderSent(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = database.PendingReminders(ctx, day, day.AddDate(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("reminder must fire once, still pending: %+v", pending)
	}
}

func TestSetBlackoutIdempotent(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	if err := database.SetBlackout(ctx, date, "10:00", false); err != nil {
		t.Fatal(err)
	}
	if err := database.SetBlackout(ctx, date, "10:00", false); err != nil {
		t.Fatalf("duplicate blackout must succeed: %v", err)
	}

	slots, err := database.ListBlackouts(ctx, &date)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected exactly one row after duplicate insert, got %d", len(slots))
	}
}

func TestRemoveBlackout(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	ok, err := database.RemoveBlackout(ctx, date, "10:00")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("removing a missing blackout must report false")
	}

	if err := database.SetBlackout(ctx, date, "10:00", false); err != nil {
		t.Fatal(err)
	}
	ok, err = database.RemoveBlackout(ctx, date, "10:00")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("removing an existing blackout must report true")
	}
}

func TestRemovableBlackoutsExcludeWeekendRows(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC) // Saturday

	if err := database.SetBlackout(ctx, date, "10:00", true); err != nil {
		t.Fatal(err)
	}
	if err := database.SetBlackout(ctx, date, "11:00", false); err != nil {
		t.Fatal(err)
	}

	removable, err := database.ListRemovableBlackouts(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(removable) != 1 || removable[0].Time != "11:00" {
		t.Fatalf("weekend rows must not be removable: %+v", removable)
	}

	all, err := database.ListBlackouts(ctx, &date)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("full listing must include weekend rows, got %d", len(all))
	}
}

func TestEnsureWeekendBlackouts(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	baseSlots := []string{"09:00", "10:00", "11:00"}

	// Monday 2025-06-02; the 7-day window covers one Sat and one Sun.
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	if err := database.EnsureWeekendBlackouts(ctx, now, 7, baseSlots); err != nil {
		t.Fatal(err)
	}

	saturday := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	count, err := database.WeekendSlotCount(ctx, saturday)
	if err != nil {
		t.Fatal(err)
	}
	if count != len(baseSlots) {
		t.Errorf("saturday weekend slots = %d, want %d", count, len(baseSlots))
	}

	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	count, err = database.WeekendSlotCount(ctx, monday)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("weekday must have no weekend rows, got %d", count)
	}

	// Re-running over the same window stays idempotent.
	if err := database.EnsureWeekendBlackouts(ctx, now, 7, baseSlots); err != nil {
		t.Fatal(err)
	}
	count, err = database.WeekendSlotCount(ctx, saturday)
	if err != nil {
		t.Fatal(err)
	}
	if count != len(baseSlots) {
		t.Errorf("idempotent re-run changed weekend slots: %d", count)
	}
}

func TestPurgeExpiredBlackouts(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	old := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	if err := database.SetBlackout(ctx, old, "10:00", true); err != nil {
		t.Fatal(err)
	}
	if err := database.SetBlackout(ctx, current, "10:00", true); err != nil {
		t.Fatal(err)
	}

	purged, err := database.PurgeExpiredBlackouts(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	remaining, err := database.ListBlackouts(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || !remaining[0].Date.Equal(current) {
		t.Errorf("wrong rows survived the purge: %+v", remaining)
	}
}
