// Package bot is the Telegram front-end of the booking engine: a thin
// conversational layer over the booking service and availability engine.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kmvit/booking-bot/internal/booking"
	"github.com/kmvit/booking-bot/internal/cache"
	"github.com/kmvit/booking-bot/internal/db"
	"github.com/kmvit/booking-bot/internal/schedule"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Deps bundles the collaborators the bot needs.
type Deps struct {
	DB      *db.DB
	Service *booking.Service
	Engine  *schedule.Engine
	Cache   *cache.SlotCache
	Admins  []int64
	Debug   bool
	Logger  zerolog.Logger
}

// Bot is the Telegram front-end.
type Bot struct {
	tg       telegramClient
	db       *db.DB
	svc      *booking.Service
	engine   *schedule.Engine
	cache    *cache.SlotCache
	admins   map[int64]struct{}
	sessions *SessionStore
	logger   zerolog.Logger
}

// New creates a bot over a real Telegram connection.
func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = deps.Debug
	return NewWithTelegramClient(&realTelegramClient{api: api}, deps)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, deps Deps) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	admins := make(map[int64]struct{}, len(deps.Admins))
	for _, id := range deps.Admins {
		admins[id] = struct{}{}
	}
	return &Bot{
		tg:       tg,
		db:       deps.DB,
		svc:      deps.Service,
		engine:   deps.Engine,
		cache:    deps.Cache,
		admins:   admins,
		sessions: NewSessionStore(30 * time.Minute),
		logger:   deps.Logger.With().Str("component", "bot").Logger(),
	}, nil
}

// Start begins polling updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	cleanup := time.NewTicker(10 * time.Minute)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			if removed := b.sessions.Cleanup(); removed > 0 {
				b.logger.Debug().Int("removed", removed).Msg("expired dialog sessions dropped")
			}
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

// availableSlots answers slot-level availability through the cache when
// one is configured.
func (b *Bot) availableSlots(ctx context.Context, date time.Time) ([]string, error) {
	if slots, ok := b.cache.GetSlots(ctx, date); ok {
		return slots, nil
	}
	slots, err := b.engine.AvailableSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	b.cache.SetSlots(ctx, date, slots)
	return slots, nil
}
