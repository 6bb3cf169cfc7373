package db

import (
	"context"
	"database/sql"

	"github.com/kmvit/booking-bot/internal/model"
)

// defaultProcedures is the studio price list provisioned on first start.
var defaultProcedures = []model.Procedure{
	{
		Name:        "Эстетика (уход, чистка, пилинг и пр.)",
		Duration:    1.5,
		Description: "Комплексные процедуры по уходу за кожей",
	},
	{
		Name:        "Контурная пластика губ",
		Duration:    1.0,
		Description: "Процедура увеличения объема губ",
	},
	{
		Name:        "Биоревитализация",
		Duration:    1.0,
		Description: "Процедура омоложения кожи",
	},
}

// SeedProcedures inserts the default procedures when the table is empty.
func (db *DB) SeedProcedures(ctx context.Context) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM procedures").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range defaultProcedures {
		_, err := db.ExecContext(ctx,
			"INSERT INTO procedures (name, duration, description) VALUES (?, ?, ?)",
			p.Name, p.Duration, p.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListProcedures returns all procedures ordered by id.
func (db *DB) ListProcedures(ctx context.Context) ([]model.Procedure, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, duration, description FROM procedures ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var procedures []model.Procedure
	for rows.Next() {
		var p model.Procedure
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Duration, &description); err != nil {
			return nil, err
		}
		p.Description = description.String
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

// GetProcedure returns a procedure by id, nil when not found.
func (db *DB) GetProcedure(ctx context.Context, id int64) (*model.Procedure, error) {
	var p model.Procedure
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT id, name, duration, description FROM procedures WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Duration, &description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}
