package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kmvit/booking-bot/internal/model"
)

// weekdayNames are short Russian weekday labels for date buttons.
var weekdayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func proceduresKeyboard(procedures []model.Procedure) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(procedures))
	for _, p := range procedures {
		label := fmt.Sprintf("%s (%s)", p.Name, formatDuration(p.Duration))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("proc:%d", p.ID)),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func datesKeyboard(dates []time.Time) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 2)
	for _, d := range dates {
		label := fmt.Sprintf("%s %s", d.Format("02.01"), weekdayNames[int(d.Weekday())])
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "date:"+d.Format("2006-01-02")))
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func slotsKeyboard(slots []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0)
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for _, s := range slots {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s, "slot:"+s))
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 3)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm:yes"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "confirm:no"),
		),
	)
}

func myAppointmentsKeyboard(appointments []model.Appointment) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(appointments))
	for _, a := range appointments {
		label := fmt.Sprintf("❌ %s %s — %s", a.Date.Format("02.01"), a.Date.Format("15:04"), a.ProcedureName)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("cancel:%d", a.ID)),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatDuration(hours float64) string {
	switch {
	case hours == 1:
		return "1 час"
	case hours == 1.5:
		return "1.5 часа"
	case hours == float64(int(hours)):
		return fmt.Sprintf("%d ч", int(hours))
	default:
		return fmt.Sprintf("%.1f ч", hours)
	}
}
