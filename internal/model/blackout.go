package model

import "time"

// BlackoutSlot marks one (date, time) pair as not bookable. IsWeekend
// distinguishes auto-generated weekend rows from manually added ones;
// only manual rows are offered for individual removal.
type BlackoutSlot struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"` // "HH:MM"
	IsWeekend bool      `json:"is_weekend"`
}
