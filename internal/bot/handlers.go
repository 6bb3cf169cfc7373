package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var mainMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("🗓 Записаться"),
		tgbotapi.NewKeyboardButton("📌 Мои записи"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("ℹ️ Помощь"),
	),
)

const helpText = `Я помогу записаться на процедуру.

🗓 Записаться — выбрать процедуру, дату и время
📌 Мои записи — посмотреть и отменить записи`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if b.isAdmin(userID) && b.handleAdminText(ctx, chatID, text) {
		return
	}

	switch text {
	case "🗓 Записаться":
		b.startBooking(ctx, userID, chatID)
		return
	case "📌 Мои записи":
		b.showMyAppointments(ctx, userID, chatID)
		return
	case "ℹ️ Помощь":
		b.reply(chatID, helpText)
		return
	}

	// Free text feeds the dialog steps that expect it.
	session := b.sessions.Get(userID)
	switch session.State {
	case StateName:
		session.Draft.ClientName = text
		if err := b.db.UpdateClientName(ctx, userID, text); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("update client name")
		}
		b.sessions.Transition(userID, StatePhone)
		b.reply(chatID, "Укажите номер телефона (или отправьте «-», чтобы пропустить):")
	case StatePhone:
		if text != "-" {
			phone, ok := normalizePhone(text)
			if !ok {
				b.reply(chatID, "Не похоже на номер телефона. Пример: +79991234567 (или «-», чтобы пропустить).")
				return
			}
			session.Draft.ClientPhone = phone
			if err := b.db.UpdateClientPhone(ctx, userID, phone); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("update client phone")
			}
		}
		b.sessions.Transition(userID, StateConfirm)
		b.sendConfirmation(chatID, session)
	default:
		b.sendMainMenu(chatID)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if _, err := b.db.UpsertClient(ctx, userID, msg.From.UserName, name); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("upsert client")
			b.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
			return
		}
		b.reply(chatID, "Здравствуйте! Я бот для записи на процедуры.")
		b.sendMainMenu(chatID)
	case "help":
		b.reply(chatID, helpText)
	case "my":
		b.showMyAppointments(ctx, userID, chatID)
	case "cancel":
		b.sessions.Reset(userID)
		b.reply(chatID, "Действие отменено.")
		b.sendMainMenu(chatID)
	default:
		if b.isAdmin(userID) {
			b.handleAdminCommand(ctx, msg)
			return
		}
		b.reply(chatID, "Неизвестная команда. Отправьте /help.")
	}
}

func (b *Bot) sendMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Выберите действие:")
	msg.ReplyMarkup = mainMenu
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send menu")
	}
}

func (b *Bot) startBooking(ctx context.Context, userID, chatID int64) {
	procedures, err := b.db.ListProcedures(ctx)
	if err != nil || len(procedures) == 0 {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list procedures")
		b.reply(chatID, "Не удалось загрузить список процедур, попробуйте позже.")
		return
	}

	b.sessions.Reset(userID)
	b.sessions.Transition(userID, StateProcedure)

	msg := tgbotapi.NewMessage(chatID, "Выберите процедуру:")
	msg.ReplyMarkup = proceduresKeyboard(procedures)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send procedures")
	}
}

func (b *Bot) showMyAppointments(ctx context.Context, userID, chatID int64) {
	client, err := b.db.GetClientByTelegramID(ctx, userID)
	if err != nil || client == nil {
		b.reply(chatID, "У вас пока нет записей.")
		return
	}
	appointments, err := b.svc.ListUpcoming(ctx, client.ID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list upcoming")
		b.reply(chatID, "Не удалось загрузить записи, попробуйте позже.")
		return
	}
	if len(appointments) == 0 {
		b.reply(chatID, "У вас пока нет записей.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Ваши записи (нажмите, чтобы отменить):")
	msg.ReplyMarkup = myAppointmentsKeyboard(appointments)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send appointments")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	// Acknowledge the callback so the client stops the spinner.
	if _, err := b.tg.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Debug().Err(err).Msg("ack callback")
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "proc:"):
		b.handleProcedureChosen(ctx, userID, chatID, strings.TrimPrefix(data, "proc:"))
	case strings.HasPrefix(data, "date:"):
		b.handleDateChosen(ctx, userID, chatID, strings.TrimPrefix(data, "date:"))
	case strings.HasPrefix(data, "slot:"):
		b.handleSlotChosen(ctx, userID, chatID, strings.TrimPrefix(data, "slot:"))
	case strings.HasPrefix(data, "confirm:"):
		b.handleConfirm(ctx, userID, chatID, strings.TrimPrefix(data, "confirm:"))
	case strings.HasPrefix(data, "cancel:"):
		b.handleCancelAppointment(ctx, chatID, strings.TrimPrefix(data, "cancel:"))
	case strings.HasPrefix(data, "unblock:"):
		b.handleUnblock(ctx, userID, chatID, strings.TrimPrefix(data, "unblock:"))
	case strings.HasPrefix(data, "bpage:"):
		if b.isAdmin(userID) {
			page, err := strconv.Atoi(strings.TrimPrefix(data, "bpage:"))
			if err == nil {
				b.sendRemovableBlackoutsPage(ctx, chatID, cb.Message.MessageID, page)
			}
		}
	}
}

func (b *Bot) handleProcedureChosen(ctx context.Context, userID, chatID int64, raw string) {
	procedureID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	procedure, err := b.db.GetProcedure(ctx, procedureID)
	if err != nil || procedure == nil {
		b.reply(chatID, "Процедура не найдена, начните заново.")
		return
	}

	session := b.sessions.Get(userID)
	session.Draft.ProcedureID = procedure.ID
	session.Draft.ProcedureName = procedure.Name
	session.Draft.Duration = procedure.Duration
	b.sessions.Transition(userID, StateDate)

	dates, err := b.engine.AvailableDates(ctx, time.Now())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("available dates")
		b.reply(chatID, "Не удалось загрузить даты, попробуйте позже.")
		return
	}
	if len(dates) == 0 {
		b.reply(chatID, "Свободных дат нет, загляните позже.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Выберите дату:")
	msg.ReplyMarkup = datesKeyboard(dates)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send dates")
	}
}

func (b *Bot) handleDateChosen(ctx context.Context, userID, chatID int64, raw string) {
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return
	}

	session := b.sessions.Get(userID)
	session.Draft.Date = raw
	b.sessions.Transition(userID, StateTime)

	slots, err := b.availableSlots(ctx, date)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("available slots")
		b.reply(chatID, "Не удалось загрузить время, попробуйте позже.")
		return
	}
	if len(slots) == 0 {
		b.reply(chatID, "На эту дату свободного времени нет, выберите другую.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Выберите время:")
	msg.ReplyMarkup = slotsKeyboard(slots)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send slots")
	}
}

func (b *Bot) handleSlotChosen(ctx context.Context, userID, chatID int64, slot string) {
	session := b.sessions.Get(userID)
	if session.State != StateTime {
		b.reply(chatID, "Начните запись заново: 🗓 Записаться.")
		return
	}
	session.Draft.Slot = slot
	b.sessions.Transition(userID, StateName)
	b.reply(chatID, "Как к вам обращаться? Напишите имя:")
}

func (b *Bot) sendConfirmation(chatID int64, session *Session) {
	d := session.Draft
	date, _ := time.Parse("2006-01-02", d.Date)
	text := fmt.Sprintf(
		"Проверьте запись:\n\n💉 %s (%s)\n📅 %s\n🕒 %s\n👤 %s",
		d.ProcedureName, formatDuration(d.Duration),
		date.Format("02.01.2006"), d.Slot, d.ClientName,
	)
	if d.ClientPhone != "" {
		text += "\n📞 " + d.ClientPhone
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = confirmKeyboard()
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send confirmation")
	}
}

func (b *Bot) handleConfirm(ctx context.Context, userID, chatID int64, answer string) {
	session := b.sessions.Get(userID)
	if session.State != StateConfirm {
		return
	}
	if answer != "yes" {
		b.sessions.Reset(userID)
		b.reply(chatID, "Запись отменена.")
		b.sendMainMenu(chatID)
		return
	}

	client, err := b.db.GetClientByTelegramID(ctx, userID)
	if err != nil || client == nil {
		b.reply(chatID, "Что-то пошло не так, отправьте /start и попробуйте ещё раз.")
		return
	}

	start, err := session.startTime()
	if err != nil {
		b.reply(chatID, "Не удалось разобрать дату, начните заново.")
		return
	}

	appt, err := b.svc.Create(ctx, client.ID, session.Draft.ProcedureID, start)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create appointment")
		b.reply(chatID, "Это время уже занято или недоступно. Попробуйте выбрать другое.")
		b.sessions.Reset(userID)
		return
	}

	b.sessions.Reset(userID)
	b.reply(chatID, fmt.Sprintf(
		"✅ Вы записаны!\n\n💉 %s\n📅 %s\n🕒 %s\n\nЖдём вас!",
		appt.ProcedureName, start.Format("02.01.2006"), start.Format("15:04"),
	))
	b.sendMainMenu(chatID)
}

func (b *Bot) handleCancelAppointment(ctx context.Context, chatID int64, raw string) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	if b.svc.Cancel(ctx, id) {
		b.reply(chatID, "Запись отменена.")
	} else {
		b.reply(chatID, "Не удалось отменить запись: она не найдена или уже завершена.")
	}
}

// startTime combines the collected date and slot into a timestamp.
func (s *Session) startTime() (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", s.Draft.Date+" "+s.Draft.Slot, time.Local)
}

// normalizePhone strips separators and keeps a leading plus. Accepts 7
// to 15 digits.
func normalizePhone(raw string) (string, bool) {
	var digits strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			digits.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	n := len(strings.TrimPrefix(phone, "+"))
	if n < 7 || n > 15 {
		return "", false
	}
	return phone, true
}
