package db

import (
	"context"
	"time"

	"github.com/kmvit/booking-bot/internal/model"
)

// SetBlackout disables one (date, time) slot. The insert is idempotent:
// the unique constraint on (date, time) turns a duplicate into a no-op
// and the call still succeeds.
func (db *DB) SetBlackout(ctx context.Context, date time.Time, slot string, isWeekend bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blackout_slots (date, time, is_weekend)
		VALUES (?, ?, ?)`,
		date.Format(dateKey), slot, isWeekend,
	)
	return err
}

// RemoveBlackout re-enables a slot. Returns false when no such record
// exists.
func (db *DB) RemoveBlackout(ctx context.Context, date time.Time, slot string) (bool, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM blackout_slots WHERE date = ? AND time = ?",
		date.Format(dateKey), slot,
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

// ListBlackouts returns blackout slots ordered by date then time.
// A nil date lists all of them.
func (db *DB) ListBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error) {
	return db.listBlackouts(ctx, date, false)
}

// ListRemovableBlackouts returns only manually added blackouts, the ones
// offered for individual removal. Weekend rows roll out with the horizon
// instead of being removed per slot.
func (db *DB) ListRemovableBlackouts(ctx context.Context, date *time.Time) ([]model.BlackoutSlot, error) {
	return db.listBlackouts(ctx, date, true)
}

func (db *DB) listBlackouts(ctx context.Context, date *time.Time, manualOnly bool) ([]model.BlackoutSlot, error) {
	query := "SELECT id, date, time, is_weekend FROM blackout_slots"
	var args []interface{}
	var conds []string
	if date != nil {
		conds = append(conds, "date = ?")
		args = append(args, date.Format(dateKey))
	}
	if manualOnly {
		conds = append(conds, "is_weekend = 0")
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY date, time"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.BlackoutSlot
	for rows.Next() {
		var s model.BlackoutSlot
		var dateStr string
		if err := rows.Scan(&s.ID, &dateStr, &s.Time, &s.IsWeekend); err != nil {
			return nil, err
		}
		if s.Date, err = time.Parse(dateKey, dateStr); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// BlackedOutTimes returns the disabled slot times for a date regardless
// of the weekend flag. Implements schedule.BlackoutSource.
func (db *DB) BlackedOutTimes(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT time FROM blackout_slots WHERE date = ? ORDER BY time",
		date.Format(dateKey),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// WeekendSlotCount returns how many weekend-flagged slots exist on a
// date. Implements schedule.BlackoutSource.
func (db *DB) WeekendSlotCount(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blackout_slots WHERE date = ? AND is_weekend = 1",
		date.Format(dateKey),
	).Scan(&count)
	return count, err
}

// EnsureWeekendBlackouts marks every base slot of each Saturday and
// Sunday within the horizon as a weekend blackout. Existing rows are
// left untouched, so manual blackouts keep their flag.
func (db *DB) EnsureWeekendBlackouts(ctx context.Context, now time.Time, horizonDays int, baseSlots []string) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := 0; i < horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			continue
		}
		for _, slot := range baseSlots {
			if err := db.SetBlackout(ctx, date, slot, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// PurgeExpiredBlackouts deletes blackout rows dated before the given day,
// rolling old weekend rows out of the horizon.
func (db *DB) PurgeExpiredBlackouts(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM blackout_slots WHERE date < ?",
		before.Format(dateKey),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
