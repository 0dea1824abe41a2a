// Package catalog is the read-only product lookup the order core consumes.
// Product management itself (categories, ingredients, translations) lives
// outside this service; the core only needs current price and availability.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found in catalog")

// Product is the slice of a catalog entry the order core cares about.
type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Available bool
}

// Lookup resolves a product id to its current price and availability.
// "not found" and "not available" are distinct outcomes: the first is
// ErrNotFound, the second a Product with Available == false.
type Lookup interface {
	Product(ctx context.Context, id int64) (*Product, error)
}
