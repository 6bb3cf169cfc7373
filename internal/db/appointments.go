package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/kmvit/booking-bot/internal/model"
)

const appointmentColumns = `
	a.id, a.client_id, a.procedure_id, a.date, a.status, a.reminder_sent, a.created_at,
	p.name, p.duration, c.name, c.phone, c.telegram_id`

const appointmentJoins = `
	FROM appointments a
	JOIN procedures p ON p.id = a.procedure_id
	JOIN clients c ON c.id = a.client_id`

// CreateAppointment inserts a new scheduled appointment. Availability is
// not re-checked here; callers confirm it beforehand via the engine.
func (db *DB) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO appointments (client_id, procedure_id, date, status, reminder_sent, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		a.ClientID, a.ProcedureID, a.Date, model.StatusScheduled, now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	a.Status = model.StatusScheduled
	a.CreatedAt = now
	return nil
}

// GetAppointment returns an appointment with procedure and client details
// joined in, nil when not found.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	row := db.QueryRowContext(ctx,
		"SELECT"+appointmentColumns+appointmentJoins+" WHERE a.id = ?", id)

	a, err := scanAppointmentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAppointmentStatus moves an appointment from one status to another
// in a single statement, so the state guard and the write are atomic.
// Returns false when the appointment is missing or not in "from".
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE appointments SET status = ? WHERE id = ? AND status = ?",
		to, id, from,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteAppointment removes an appointment regardless of status.
// Returns false when no such record exists.
func (db *DB) DeleteAppointment(ctx context.Context, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListUpcoming returns scheduled appointments dated from the start of the
// given day onwards, ascending. clientID 0 lists all clients.
func (db *DB) ListUpcoming(ctx context.Context, clientID int64, from time.Time) ([]model.Appointment, error) {
	startOfDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	query := "SELECT" + appointmentColumns + appointmentJoins +
		" WHERE a.status = ? AND a.date >= ?"
	args := []interface{}{model.StatusScheduled, startOfDay}
	if clientID != 0 {
		query += " AND a.client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY a.date"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ScheduledOnDate returns scheduled appointments starting on the given
// calendar day. Implements schedule.AppointmentSource.
func (db *DB) ScheduledOnDate(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	rows, err := db.QueryContext(ctx,
		"SELECT"+appointmentColumns+appointmentJoins+`
		WHERE a.status = ? AND a.date >= ? AND a.date < ?
		ORDER BY a.date`,
		model.StatusScheduled, startOfDay, endOfDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// PendingReminders returns scheduled appointments within [from, to) that
// have not had a reminder sent yet.
func (db *DB) PendingReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT"+appointmentColumns+appointmentJoins+`
		WHERE a.status = ? AND a.reminder_sent = 0 AND a.date >= ? AND a.date < ?
		ORDER BY a.date`,
		model.StatusScheduled, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminderSent flips the reminder flag. The flag only ever goes from
// false to true, once per appointment.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE appointments SET reminder_sent = 1 WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointmentRow(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	var clientName, clientPhone sql.NullString
	err := row.Scan(
		&a.ID, &a.ClientID, &a.ProcedureID, &a.Date, &a.Status, &a.ReminderSent, &a.CreatedAt,
		&a.ProcedureName, &a.Duration, &clientName, &clientPhone, &a.TelegramID,
	)
	if err != nil {
		return nil, err
	}
	a.ClientName = clientName.String
	a.ClientPhone = clientPhone.String
	return &a, nil
}

func scanAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	var appointments []model.Appointment
	for rows.Next() {
		a, err := scanAppointmentRow(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}
