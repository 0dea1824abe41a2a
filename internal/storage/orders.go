package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/menu-orders/internal/domain/order"
)

// OrderStore persists orders and their line items in Postgres.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Create inserts the order and all its items in one transaction. A partial
// order is never observable.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, status, total_price, delivery_street, delivery_house_number, delivery_location, phone, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		o.OwnerID, o.Status, o.Total,
		o.Delivery.Street, o.Delivery.HouseNumber, o.Delivery.Location,
		o.Delivery.Phone, o.Delivery.Notes,
		o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, subtotal, customization)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPrice, item.Subtotal,
			nullableJSON(item.Customization),
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID loads one order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByOwner returns the owner's orders, drafts included, newest first.
func (s *OrderStore) ListByOwner(ctx context.Context, ownerID string) ([]*order.Order, error) {
	return s.list(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
}

// ListActive returns every order except drafts, newest first. This is the
// staff view; drafts are excluded entirely.
func (s *OrderStore) ListActive(ctx context.Context) ([]*order.Order, error) {
	return s.list(ctx, selectOrder+` WHERE status <> $1 ORDER BY created_at DESC`, order.StatusDraft)
}

// UpdateStatus applies a status mutation under a row lock. Concurrent
// transitions for the same order serialize here; apply always sees the
// committed state.
func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, apply func(*order.Order) error) (*order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}

	if err := apply(o); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		o.Status, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

const selectOrder = `SELECT id, user_id, status, total_price, delivery_street, delivery_house_number, delivery_location, phone, notes, created_at, updated_at FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OwnerID, &o.Status, &o.Total,
		&o.Delivery.Street, &o.Delivery.HouseNumber, &o.Delivery.Location,
		&o.Delivery.Phone, &o.Delivery.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OrderStore) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price, subtotal, customization
		 FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = o.Items[:0]
	for rows.Next() {
		var item order.Item
		var customization sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &customization); err != nil {
			return err
		}
		if customization.Valid {
			item.Customization = []byte(customization.String)
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (s *OrderStore) list(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if err := s.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
