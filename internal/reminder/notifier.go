// Package reminder sends one-time appointment reminders on two daily
// triggers: the day before and the morning of the appointment.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kmvit/booking-bot/internal/metrics"
	"github.com/kmvit/booking-bot/internal/model"
	"github.com/kmvit/booking-bot/internal/schedule"
)

// Store provides the appointments that still need a reminder.
type Store interface {
	// PendingReminders returns scheduled appointments within [from, to)
	// whose reminder flag is still false.
	PendingReminders(ctx context.Context, from, to time.Time) ([]model.Appointment, error)

	// MarkReminderSent flips the reminder flag after a delivery attempt.
	MarkReminderSent(ctx context.Context, id int64) error
}

// Sender delivers one reminder to a client chat. Implemented by the
// Telegram layer; delivery failures stay inside the notifier.
type Sender interface {
	SendReminder(ctx context.Context, chatID int64, appt model.Appointment) error
}

// Config holds the trigger times of the notifier.
type Config struct {
	// DayBefore and DayOf are "HH:MM" local trigger times.
	DayBefore string
	DayOf     string
	// SendsPerSecond bounds outgoing messages. Default 20.
	SendsPerSecond float64
}

// Notifier scans for upcoming appointments and triggers reminder
// delivery exactly once per appointment.
type Notifier struct {
	store   Store
	sender  Sender
	config  Config
	limiter *rate.Limiter
	loc     *time.Location
	logger  zerolog.Logger
}

// New creates a reminder notifier.
func New(store Store, sender Sender, config Config, loc *time.Location, logger zerolog.Logger) *Notifier {
	if config.SendsPerSecond <= 0 {
		config.SendsPerSecond = 20
	}
	return &Notifier{
		store:   store,
		sender:  sender,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.SendsPerSecond), 1),
		loc:     loc,
		logger:  logger.With().Str("component", "reminder").Logger(),
	}
}

// Register adds the two daily triggers to the given cron runner.
func (n *Notifier) Register(ctx context.Context, c *cron.Cron) error {
	for _, at := range []string{n.config.DayBefore, n.config.DayOf} {
		spec, err := cronSpec(at)
		if err != nil {
			return fmt.Errorf("reminder trigger %q: %w", at, err)
		}
		if _, err := c.AddFunc(spec, func() { n.RunOnce(ctx) }); err != nil {
			return fmt.Errorf("register trigger %q: %w", at, err)
		}
	}
	n.logger.Info().
		Str("day_before", n.config.DayBefore).
		Str("day_of", n.config.DayOf).
		Msg("reminder triggers registered")
	return nil
}

// RunOnce scans appointments dated today and tomorrow and sends the
// outstanding reminders. A failed delivery does not stop the batch, and
// the reminder flag is set after the attempt either way: the current
// design does not retry failed sends on the next run.
func (n *Notifier) RunOnce(ctx context.Context) {
	now := time.Now().In(n.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.loc)
	to := from.AddDate(0, 0, 2)

	appointments, err := n.store.PendingReminders(ctx, from, to)
	if err != nil {
		n.logger.Error().Err(err).Msg("load pending reminders")
		return
	}
	if len(appointments) == 0 {
		return
	}

	n.logger.Info().Int("count", len(appointments)).Msg("processing reminders")

	sent, failed := 0, 0
	for _, appt := range appointments {
		select {
		case <-ctx.Done():
			n.logger.Info().Int("sent", sent).Msg("reminder run interrupted")
			return
		default:
		}

		if err := n.limiter.Wait(ctx); err != nil {
			return
		}

		if err := n.sender.SendReminder(ctx, appt.TelegramID, appt); err != nil {
			failed++
			metrics.IncReminderSent("failed")
			n.logger.Error().Err(err).
				Int64("appointment_id", appt.ID).
				Int64("chat_id", appt.TelegramID).
				Msg("send reminder")
		} else {
			sent++
			metrics.IncReminderSent("sent")
		}

		if err := n.store.MarkReminderSent(ctx, appt.ID); err != nil {
			n.logger.Error().Err(err).
				Int64("appointment_id", appt.ID).
				Msg("mark reminder sent")
		}
	}

	n.logger.Info().Int("sent", sent).Int("failed", failed).Msg("reminder run finished")
}

// cronSpec converts "HH:MM" into a daily cron expression.
func cronSpec(at string) (string, error) {
	ofs, err := schedule.ParseClock(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", int(ofs.Minutes())%60, int(ofs.Hours())), nil
}
