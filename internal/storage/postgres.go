// Package storage holds the Postgres-backed stores for orders and
// principals. The relational rows are the system of record; row-level
// atomicity is what serializes concurrent transitions for one order.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens and verifies a Postgres connection pool.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'customer',
		is_guest      BOOLEAN NOT NULL DEFAULT FALSE,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		price     NUMERIC(10,2) NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                    BIGSERIAL PRIMARY KEY,
		user_id               UUID NOT NULL REFERENCES users(id),
		status                TEXT NOT NULL DEFAULT 'pending',
		total_price           NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (total_price >= 0),
		delivery_street       TEXT NOT NULL,
		delivery_house_number TEXT NOT NULL,
		delivery_location     TEXT NOT NULL,
		phone                 TEXT NOT NULL,
		notes                 TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id            BIGSERIAL PRIMARY KEY,
		order_id      BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id    BIGINT NOT NULL REFERENCES products(id),
		product_name  TEXT NOT NULL DEFAULT '',
		quantity      INTEGER NOT NULL CHECK (quantity >= 1),
		unit_price    NUMERIC(10,2) NOT NULL,
		subtotal      NUMERIC(10,2) NOT NULL,
		customization JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS order_user_created_idx ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS order_status_created_idx ON orders (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
