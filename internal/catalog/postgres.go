package catalog

import (
	"context"
	"database/sql"
)

// PostgresLookup reads products straight from the products table. The order
// core never writes through it.
type PostgresLookup struct {
	db *sql.DB
}

func NewPostgresLookup(db *sql.DB) *PostgresLookup {
	return &PostgresLookup{db: db}
}

func (l *PostgresLookup) Product(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, price, available FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Available)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
