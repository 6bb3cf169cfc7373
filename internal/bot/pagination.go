package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/model"
)

const blackoutsPerPage = 8

// sendRemovableBlackoutsPage renders one page of the unblock menu.
// messageID 0 sends a new message, otherwise the existing one is edited
// in place so paging does not flood the chat.
func (b *Bot) sendRemovableBlackoutsPage(ctx context.Context, chatID int64, messageID, page int) {
	slots, err := b.svc.RemovableBlackouts(ctx, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list removable blackouts")
		b.reply(chatID, "Не удалось загрузить список.")
		return
	}
	if len(slots) == 0 {
		b.reply(chatID, "Закрытых вручную слотов нет.")
		return
	}

	totalPages := (len(slots) + blackoutsPerPage - 1) / blackoutsPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	startIdx := page * blackoutsPerPage
	endIdx := startIdx + blackoutsPerPage
	if endIdx > len(slots) {
		endIdx = len(slots)
	}

	var text strings.Builder
	text.WriteString("Выберите слот, чтобы открыть его:")
	if totalPages > 1 {
		text.WriteString(fmt.Sprintf("\n\nСтраница %d из %d", page+1, totalPages))
	}

	keyboard := blackoutPageKeyboard(slots[startIdx:endIdx], page, totalPages)

	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text.String(), keyboard)
		if _, err := b.tg.Send(edit); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("edit unblock menu")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ReplyMarkup = keyboard
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send unblock menu")
	}
}

func blackoutPageKeyboard(slots []model.BlackoutSlot, page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(slots)+1)
	for _, s := range slots {
		label := fmt.Sprintf("%s %s", s.Date.Format("02.01.2006"), s.Time)
		data := fmt.Sprintf("unblock:%s:%s", s.Date.Format("2006-01-02"), s.Time)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		})
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("bpage:%d", page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперед ➡️", fmt.Sprintf("bpage:%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
