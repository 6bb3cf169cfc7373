package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/model"
	"github.com/kmvit/booking-bot/internal/report"
)

var adminMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("📋 Все записи"),
	),
)

const adminHelpText = `Команды администратора:

/appointments — предстоящие записи
/done <id> — отметить запись выполненной
/delete <id> — удалить запись
/block <дата> <время> — закрыть слот (2025-01-15 10:00)
/unblock — открыть закрытый слот
/blackouts — список закрытых слотов
/export — выгрузка записей в Excel`

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "admin":
		reply := tgbotapi.NewMessage(chatID, adminHelpText)
		reply.ReplyMarkup = adminMenu
		if _, err := b.tg.Send(reply); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send admin menu")
		}
	case "appointments":
		b.adminListAppointments(ctx, chatID)
	case "done":
		b.adminComplete(ctx, chatID, args)
	case "delete":
		b.adminDelete(ctx, chatID, args)
	case "block":
		b.adminBlock(ctx, chatID, args)
	case "unblock":
		b.adminUnblockMenu(ctx, chatID)
	case "blackouts":
		b.adminListBlackouts(ctx, chatID)
	case "export":
		b.adminExport(ctx, chatID)
	default:
		b.reply(chatID, "Неизвестная команда. Отправьте /admin.")
	}
}

// handleAdminText intercepts admin reply-keyboard shortcuts; reports
// whether the text was consumed.
func (b *Bot) handleAdminText(ctx context.Context, chatID int64, text string) bool {
	switch text {
	case "📋 Все записи":
		b.adminListAppointments(ctx, chatID)
		return true
	}
	return false
}

func (b *Bot) adminListAppointments(ctx context.Context, chatID int64) {
	appointments, err := b.svc.ListUpcoming(ctx, 0)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("admin list appointments")
		b.reply(chatID, "Не удалось загрузить записи.")
		return
	}
	if len(appointments) == 0 {
		b.reply(chatID, "Предстоящих записей нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Предстоящие записи:\n")
	for _, a := range appointments {
		sb.WriteString(fmt.Sprintf(
			"\n#%d %s %s\n💉 %s\n👤 %s",
			a.ID, a.Date.Format("02.01.2006"), a.Date.Format("15:04"),
			a.ProcedureName, a.ClientName,
		))
		if a.ClientPhone != "" {
			sb.WriteString(" 📞 " + a.ClientPhone)
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) adminComplete(ctx context.Context, chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Использование: /done <id>")
		return
	}
	if b.svc.Complete(ctx, id) {
		b.reply(chatID, fmt.Sprintf("Запись #%d отмечена выполненной.", id))
	} else {
		b.reply(chatID, fmt.Sprintf("Запись #%d не найдена или уже закрыта.", id))
	}
}

func (b *Bot) adminDelete(ctx context.Context, chatID int64, args []string) {
	id, ok := parseID(args)
	if !ok {
		b.reply(chatID, "Использование: /delete <id>")
		return
	}
	if b.svc.Delete(ctx, id) {
		b.reply(chatID, fmt.Sprintf("Запись #%d удалена.", id))
	} else {
		b.reply(chatID, fmt.Sprintf("Запись #%d не найдена.", id))
	}
}

func (b *Bot) adminBlock(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		b.reply(chatID, "Использование: /block 2025-01-15 10:00")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
	if err != nil {
		b.reply(chatID, "Неверная дата, формат: 2025-01-15.")
		return
	}
	slot := args[1]
	if _, err := time.Parse("15:04", slot); err != nil {
		b.reply(chatID, "Неверное время, формат: 10:00.")
		return
	}
	if b.svc.SetBlackout(ctx, date, slot) {
		b.reply(chatID, fmt.Sprintf("Слот %s %s закрыт.", args[0], slot))
	} else {
		b.reply(chatID, "Не удалось закрыть слот.")
	}
}

func (b *Bot) adminUnblockMenu(ctx context.Context, chatID int64) {
	b.sendRemovableBlackoutsPage(ctx, chatID, 0, 0)
}

func (b *Bot) handleUnblock(ctx context.Context, userID, chatID int64, raw string) {
	if !b.isAdmin(userID) {
		return
	}
	// Data is "<date>:<time>", the time itself has a colon.
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return
	}
	date, err := time.ParseInLocation("2006-01-02", parts[0], time.Local)
	if err != nil {
		return
	}
	if b.svc.RemoveBlackout(ctx, date, parts[1]) {
		b.reply(chatID, fmt.Sprintf("Слот %s %s снова доступен.", parts[0], parts[1]))
	} else {
		b.reply(chatID, "Слот уже был открыт.")
	}
}

func (b *Bot) adminListBlackouts(ctx context.Context, chatID int64) {
	slots, err := b.svc.ListBlackouts(ctx, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list blackouts")
		b.reply(chatID, "Не удалось загрузить список.")
		return
	}
	if len(slots) == 0 {
		b.reply(chatID, "Закрытых слотов нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Закрытые слоты:\n\n")
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("%s %s", s.Date.Format("02.01.2006"), s.Time))
		if s.IsWeekend {
			sb.WriteString(" (выходной)")
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) adminExport(ctx context.Context, chatID int64) {
	appointments, err := b.svc.ListUpcoming(ctx, 0)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("export appointments")
		b.reply(chatID, "Не удалось подготовить выгрузку.")
		return
	}
	if len(appointments) == 0 {
		b.reply(chatID, "Записей для выгрузки нет.")
		return
	}

	wb, err := report.AppointmentsWorkbook(appointments)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("build workbook")
		b.reply(chatID, "Не удалось подготовить выгрузку.")
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("appointments_%s.xlsx", uuid.New().String()))
	if err := wb.SaveAs(path); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("save workbook")
		b.reply(chatID, "Не удалось подготовить выгрузку.")
		return
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("Записи на %s", time.Now().Format("02.01.2006"))
	if _, err := b.tg.Send(doc); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send export")
		b.reply(chatID, "Не удалось отправить файл.")
	}
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// upcomingSummary renders one appointment line for admin notifications.
func upcomingSummary(a *model.Appointment) string {
	s := fmt.Sprintf("💉 %s\n📅 %s 🕒 %s\n👤 %s",
		a.ProcedureName, a.Date.Format("02.01.2006"), a.Date.Format("15:04"), a.ClientName)
	if a.ClientPhone != "" {
		s += " 📞 " + a.ClientPhone
	}
	return s
}
