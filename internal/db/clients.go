package db

import (
	"context"
	"database/sql"

	"github.com/kmvit/booking-bot/internal/model"
)

// UpsertClient registers a client on first contact or refreshes the
// display fields on subsequent contacts. The phone is collected later in
// the booking dialog and is not touched here.
func (db *DB) UpsertClient(ctx context.Context, telegramID int64, username, name string) (*model.Client, error) {
	_, err := db.ExecContext(ctx, `
		INSERT INTO clients (telegram_id, username, name)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			name = excluded.name`,
		telegramID, username, name,
	)
	if err != nil {
		return nil, err
	}
	return db.GetClientByTelegramID(ctx, telegramID)
}

// GetClientByTelegramID returns a client by the external identity,
// nil when not registered.
func (db *DB) GetClientByTelegramID(ctx context.Context, telegramID int64) (*model.Client, error) {
	var c model.Client
	var username, name, phone sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, name, phone, is_active, created_at
		FROM clients WHERE telegram_id = ?`,
		telegramID,
	).Scan(&c.ID, &c.TelegramID, &username, &name, &phone, &c.IsActive, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Username = username.String
	c.Name = name.String
	c.Phone = phone.String
	return &c, nil
}

// UpdateClientPhone stores the contact phone collected during booking.
func (db *DB) UpdateClientPhone(ctx context.Context, telegramID int64, phone string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE clients SET phone = ? WHERE telegram_id = ?",
		phone, telegramID,
	)
	return err
}

// UpdateClientName stores the display name collected during booking.
func (db *DB) UpdateClientName(ctx context.Context, telegramID int64, name string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE clients SET name = ? WHERE telegram_id = ?",
		name, telegramID,
	)
	return err
}
