package model

import "time"

// Client is a studio client created on first contact with the bot.
// Clients are never hard-deleted; is_active is flipped instead.
type Client struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
