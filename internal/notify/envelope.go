package notify

import (
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	// ActionDeleted exists for completeness of the wire format; the core
	// never deletes orders (cancellation is the terminal soft delete), so
	// only out-of-band administrative tooling would ever emit it.
	ActionDeleted Action = "deleted"
)

// OwnerSummary is the slice of the owning principal carried in an envelope.
type OwnerSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// EventData is the order snapshot published on every committed transition.
type EventData struct {
	OrderID         int64           `json:"order_id"`
	Status          string          `json:"status"`
	Total           decimal.Decimal `json:"total_price"`
	Owner           OwnerSummary    `json:"owner"`
	DeliveryAddress string          `json:"delivery_address"`
	Phone           string          `json:"phone"`
	Notes           string          `json:"notes"`
	ItemsCount      int             `json:"items_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Envelope is the message consumers receive on the notification channels.
// It is constructed on demand and never persisted; consumers may drop it.
type Envelope struct {
	Action Action    `json:"action"`
	Data   EventData `json:"data"`
}
