// Package schedule computes which dates and time slots are bookable.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Workday describes the base slot grid of one working day: start and end
// of the day plus the slot granularity. It is built once from config and
// never mutated afterwards.
type Workday struct {
	start time.Duration // offset from midnight
	end   time.Duration
	slot  time.Duration
	slots []string
}

// NewWorkday validates the configuration and precomputes the base grid.
// Both the start and end times are included in the grid: 09:00..20:00
// with 60-minute slots yields 12 entries.
func NewWorkday(start, end string, slotMinutes int) (*Workday, error) {
	startOfs, err := ParseClock(start)
	if err != nil {
		return nil, fmt.Errorf("parse work start: %w", err)
	}
	endOfs, err := ParseClock(end)
	if err != nil {
		return nil, fmt.Errorf("parse work end: %w", err)
	}
	if endOfs <= startOfs {
		return nil, fmt.Errorf("work end %s must be after work start %s", end, start)
	}
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", slotMinutes)
	}

	w := &Workday{
		start: startOfs,
		end:   endOfs,
		slot:  time.Duration(slotMinutes) * time.Minute,
	}
	for cursor := startOfs; cursor <= endOfs; cursor += w.slot {
		w.slots = append(w.slots, formatClock(cursor))
	}
	return w, nil
}

// BaseSlots returns the ordered slot start times of the work day.
func (w *Workday) BaseSlots() []string {
	slots := make([]string, len(w.slots))
	copy(slots, w.slots)
	return slots
}

// SlotCount returns the number of base slots.
func (w *Workday) SlotCount() int {
	return len(w.slots)
}

// SlotDuration returns the grid granularity.
func (w *Workday) SlotDuration() time.Duration {
	return w.slot
}

// Contains reports whether t ("HH:MM") is a base slot start.
func (w *Workday) Contains(t string) bool {
	for _, s := range w.slots {
		if s == t {
			return true
		}
	}
	return false
}

// SlotTime places a base slot on a concrete date.
func (w *Workday) SlotTime(date time.Time, slot string) (time.Time, error) {
	ofs, err := ParseClock(slot)
	if err != nil {
		return time.Time{}, err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(ofs), nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
