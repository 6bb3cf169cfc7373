package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/kmvit/booking-bot/internal/model"
)

// AppointmentSource supplies the appointments occupying slots on a date.
type AppointmentSource interface {
	// ScheduledOnDate returns appointments with status "scheduled" starting
	// on the given calendar day, with procedure durations filled in.
	ScheduledOnDate(ctx context.Context, date time.Time) ([]model.Appointment, error)
}

// BlackoutSource supplies disabled slots from the blackout registry.
type BlackoutSource interface {
	// BlackedOutTimes returns the disabled slot times for a date,
	// regardless of the weekend flag.
	BlackedOutTimes(ctx context.Context, date time.Time) ([]string, error)

	// WeekendSlotCount returns how many slots on the date carry the
	// weekend flag.
	WeekendSlotCount(ctx context.Context, date time.Time) (int, error)
}

// Engine computes bookable dates and slots.
type Engine struct {
	day          *Workday
	appointments AppointmentSource
	blackouts    BlackoutSource
	horizonDays  int
}

// NewEngine creates an availability engine over the given sources.
// horizonDays bounds date-level availability (14 in production).
func NewEngine(day *Workday, appointments AppointmentSource, blackouts BlackoutSource, horizonDays int) *Engine {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &Engine{
		day:          day,
		appointments: appointments,
		blackouts:    blackouts,
		horizonDays:  horizonDays,
	}
}

// AvailableDates returns every date within the horizon starting at "now"
// that is not fully blacked out as a weekend day. Past dates are never
// returned because the horizon starts today.
func (e *Engine) AvailableDates(ctx context.Context, now time.Time) ([]time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var dates []time.Time
	for i := 0; i < e.horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		weekend, err := e.isWeekendBlackout(ctx, date)
		if err != nil {
			return nil, err
		}
		if !weekend {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// AvailableSlots returns the bookable slot times for a date in base-grid
// order: the base grid minus blacked-out slots minus slots occupied by
// scheduled appointments.
func (e *Engine) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	blocked, err := e.blackouts.BlackedOutTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load blackouts: %w", err)
	}
	unavailable := make(map[string]bool, len(blocked))
	for _, t := range blocked {
		unavailable[t] = true
	}

	appointments, err := e.appointments.ScheduledOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	for _, appt := range appointments {
		for _, slot := range e.occupiedSlots(appt) {
			unavailable[slot] = true
		}
	}

	var available []string
	for _, slot := range e.day.BaseSlots() {
		if !unavailable[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// occupiedSlots returns the base slots blocked by one appointment: every
// slot whose start falls within [start, start+duration). A procedure that
// does not align with the grid still blocks each slot it partially
// overlaps; availability is tracked at whole-slot resolution only.
func (e *Engine) occupiedSlots(appt model.Appointment) []string {
	start := time.Duration(appt.Date.Hour())*time.Hour + time.Duration(appt.Date.Minute())*time.Minute
	end := start + time.Duration(appt.Duration*float64(time.Hour))

	var occupied []string
	for _, slot := range e.day.BaseSlots() {
		ofs, err := ParseClock(slot)
		if err != nil {
			continue
		}
		if ofs >= start && ofs < end {
			occupied = append(occupied, slot)
		}
	}
	return occupied
}

func (e *Engine) isWeekendBlackout(ctx context.Context, date time.Time) (bool, error) {
	count, err := e.blackouts.WeekendSlotCount(ctx, date)
	if err != nil {
		return false, fmt.Errorf("count weekend blackouts: %w", err)
	}
	return count >= e.day.SlotCount(), nil
}
