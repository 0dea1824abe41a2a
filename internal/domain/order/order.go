package order

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoItems            = errors.New("order must have at least one item")
	ErrInvalidQuantity    = errors.New("item quantity must be at least 1")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
)

// IsValid reports whether s is one of the known order statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are modeled from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Delivery holds the delivery fields of an order. The core validates them
// only for presence; their content is opaque.
type Delivery struct {
	Street      string `json:"delivery_street"`
	HouseNumber string `json:"delivery_house_number"`
	Location    string `json:"delivery_location"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes,omitempty"`
}

// Address composes the delivery fields into a single display string, the
// form used in notification envelopes and emails.
func (d Delivery) Address() string {
	return d.Street + ", " + d.HouseNumber + ", " + d.Location
}

type Order struct {
	ID        int64           `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Status    Status          `json:"status"`
	Total     decimal.Decimal `json:"total_price"`
	Delivery  Delivery        `json:"delivery"`
	Items     []Item          `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Item is a line item of an order. UnitPrice is a snapshot taken from the
// catalog when the order was created; later catalog changes never alter it.
type Item struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Customization json.RawMessage `json:"customization,omitempty"`
}

// ComputeSubtotal derives the item subtotal from quantity and unit price and
// stores it on the item.
func (i *Item) ComputeSubtotal() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecomputeTotal returns the sum of the subtotals of items. It is the only
// way an order total is ever produced.
func RecomputeTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// ItemsCount returns the number of line items on the order.
func (o *Order) ItemsCount() int {
	return len(o.Items)
}
