package orders

import (
	"context"
	"database/sql"
	"encoding/json"

	"storefront/models"
)

// MySQLStore persists orders across the orders and order_items tables,
// inserted transactionally so a failed item insert never leaves a headless
// order behind.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) Append(ctx context.Context, order *models.Order) error {
	coupon, err := marshalNullable(order.Coupon)
	if err != nil {
		return err
	}
	method, err := marshalNullable(order.ShippingMethod)
	if err != nil {
		return err
	}
	address, err := marshalNullable(order.Address)
	if err != nil {
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
			(id, user_id, subtotal, discount, shipping, tax, total,
			 coupon, shipping_method, shipping_address, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, order.ID, order.UserID,
		order.Amounts.Subtotal, order.Amounts.Discount, order.Amounts.Shipping,
		order.Amounts.Tax, order.Amounts.Total,
		coupon, method, address, order.PaymentMethod, order.Status, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, ln := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity, image)
			VALUES (?, ?, ?, ?, ?, ?)
		`, order.ID, ln.ProductID, ln.Name, ln.Price, ln.Quantity, ln.Image)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderSelect = `
	SELECT o.id, o.subtotal, o.discount, o.shipping, o.tax, o.total,
	       o.coupon, o.shipping_method, o.shipping_address, o.payment_method, o.status, o.created_at,
	       i.product_id, i.product_name, i.price, i.quantity, i.image
	FROM orders o
	JOIN order_items i ON o.id = i.order_id`

func (m *MySQLStore) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	rows, err := m.db.QueryContext(ctx,
		orderSelect+" WHERE o.user_id = ? ORDER BY o.created_at DESC, i.id ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows, userID)
}

func scanOrders(rows *sql.Rows, userID int) ([]models.Order, error) {
	var (
		out   []models.Order
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			o       models.Order
			coupon  sql.NullString
			method  sql.NullString
			address sql.NullString
			ln      models.OrderLine
		)
		if err := rows.Scan(&o.ID,
			&o.Amounts.Subtotal, &o.Amounts.Discount, &o.Amounts.Shipping,
			&o.Amounts.Tax, &o.Amounts.Total,
			&coupon, &method, &address, &o.PaymentMethod, &o.Status, &o.CreatedAt,
			&ln.ProductID, &ln.Name, &ln.Price, &ln.Quantity, &ln.Image); err != nil {
			return nil, err
		}
		pos, seen := index[o.ID]
		if !seen {
			o.UserID = userID
			if err := unmarshalNullable(coupon, &o.Coupon); err != nil {
				return nil, err
			}
			if err := unmarshalNullable(method, &o.ShippingMethod); err != nil {
				return nil, err
			}
			if err := unmarshalNullable(address, &o.Address); err != nil {
				return nil, err
			}
			out = append(out, o)
			pos = len(out) - 1
			index[o.ID] = pos
		}
		out[pos].Lines = append(out[pos].Lines, ln)
	}
	return out, rows.Err()
}

func (m *MySQLStore) Get(ctx context.Context, orderID string, userID int) (*models.Order, error) {
	rows, err := m.db.QueryContext(ctx,
		orderSelect+" WHERE o.id = ? AND o.user_id = ? ORDER BY i.id ASC", orderID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanOrders(rows, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (m *MySQLStore) UpdateStatus(ctx context.Context, orderID string, userID int, status models.OrderStatus) error {
	res, err := m.db.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ? AND user_id = ?",
		status, orderID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalNullable[T any](s sql.NullString, out **T) error {
	if !s.Valid {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(s.String), v); err != nil {
		return err
	}
	*out = v
	return nil
}
