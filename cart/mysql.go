package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"storefront/models"
)

// MySQLStorage persists carts as one JSON row per cart.
type MySQLStorage struct {
	db *sql.DB
}

func NewMySQLStorage(db *sql.DB) *MySQLStorage {
	return &MySQLStorage{db: db}
}

func (m *MySQLStorage) Load(ctx context.Context, cartID string) (models.Cart, error) {
	var (
		raw  []byte
		cart models.Cart
	)
	err := m.db.QueryRowContext(ctx,
		"SELECT items, updated_at FROM carts WHERE cart_id = ?", cartID,
	).Scan(&raw, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cart{}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	if err := json.Unmarshal(raw, &cart.Items); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (m *MySQLStorage) Save(ctx context.Context, cartID string, cart models.Cart) error {
	raw, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO carts (cart_id, items, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE items = VALUES(items), updated_at = VALUES(updated_at)
	`, cartID, raw, cart.UpdatedAt)
	return err
}
