package bot

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kmvit/booking-bot/internal/events"
	"github.com/kmvit/booking-bot/internal/model"
)

// SendReminder delivers a single reminder message to the client chat.
func (b *Bot) SendReminder(ctx context.Context, chatID int64, appt model.Appointment) error {
	text := fmt.Sprintf(
		"🔔 Напоминание о записи!\n\n💉 %s\n📅 %s\n🕒 %s\n\nЖдём вас!",
		appt.ProcedureName, appt.Date.Format("02.01.2006"), appt.Date.Format("15:04"),
	)
	_, err := b.tg.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SubscribeEvents wires admin notifications to appointment lifecycle
// events.
func (b *Bot) SubscribeEvents(bus *events.Bus) {
	bus.Subscribe(events.AppointmentCreated, func(e events.Event) error {
		return b.notifyAdminsEvent("🆕 Новая запись!", e)
	})
	bus.Subscribe(events.AppointmentCancelled, func(e events.Event) error {
		return b.notifyAdminsEvent("❌ Запись отменена.", e)
	})
}

func (b *Bot) notifyAdminsEvent(header string, e events.Event) error {
	var appt model.Appointment
	if err := json.Unmarshal(e.Payload, &appt); err != nil {
		b.logger.Error().Err(err).Str("event", e.Type).Msg("decode event payload")
		return err
	}
	b.notifyAdmins(header + "\n\n" + upcomingSummary(&appt))
	return nil
}

// notifyAdmins fans a message out to every configured admin chat. One
// failed delivery does not stop the rest.
func (b *Bot) notifyAdmins(text string) {
	for adminID := range b.admins {
		if _, err := b.tg.Send(tgbotapi.NewMessage(adminID, text)); err != nil {
			b.logger.Error().Err(err).Int64("admin_id", adminID).Msg("notify admin")
		}
	}
}
