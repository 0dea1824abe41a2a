package email

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/notify"
)

func sampleOrder() *order.Order {
	items := []order.Item{
		{
			ProductID:   1,
			ProductName: "Margherita",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("10.00"),
			Customization: json.RawMessage(`{
				"deselected_ingredients": ["onion"],
				"selected_extras": [{"name": "Extra cheese", "price": "1.50"}],
				"additional_notes": "well done"
			}`),
		},
		{
			ProductID:   2,
			ProductName: "Tiramisu",
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString("5.00"),
		},
	}
	for i := range items {
		items[i].ComputeSubtotal()
	}
	return &order.Order{
		ID:     42,
		Status: order.StatusPending,
		Total:  order.RecomputeTotal(items),
		Delivery: order.Delivery{
			Street:      "Calle Principal",
			HouseNumber: "12",
			Location:    "Ardales",
			Phone:       "+34600000000",
			Notes:       "ring twice",
		},
		Items:     items,
		CreatedAt: time.Now(),
	}
}

func sampleOwner() notify.OwnerSummary {
	return notify.OwnerSummary{ID: "owner-1", DisplayName: "Anna", Email: "anna@example.com"}
}

func TestBuildCustomerConfirmationBody(t *testing.T) {
	body := BuildCustomerConfirmationBody(sampleOrder(), sampleOwner())

	assert.Contains(t, body, "Hi Anna")
	assert.Contains(t, body, "#42")
	assert.Contains(t, body, "Margherita")
	assert.Contains(t, body, "Tiramisu")
	assert.Contains(t, body, "Calle Principal, 12, Ardales")
	assert.Contains(t, body, "25.00 €")
	assert.Contains(t, body, "Notes: ring twice")
}

func TestBuildCustomerConfirmationBody_Customization(t *testing.T) {
	body := BuildCustomerConfirmationBody(sampleOrder(), sampleOwner())

	assert.Contains(t, body, "without onion")
	assert.Contains(t, body, "+ Extra cheese")
	assert.Contains(t, body, "well done")
}

func TestBuildOperatorNotificationBody(t *testing.T) {
	body := BuildOperatorNotificationBody(sampleOrder(), sampleOwner())

	assert.Contains(t, body, "#42")
	assert.Contains(t, body, "Anna")
	assert.Contains(t, body, "anna@example.com")
	assert.Contains(t, body, "Margherita")
	assert.Contains(t, body, "25.00 €")
}

func TestBuildCancellationBody(t *testing.T) {
	body := BuildCancellationBody(sampleOrder(), sampleOwner())

	assert.Contains(t, body, "#42")
	assert.Contains(t, body, "cancelled")
	assert.Contains(t, body, "25.00")
	assert.NotContains(t, body, "Margherita", "the cancellation notice carries no item table")
}

func TestTemplates_EscapeUserContent(t *testing.T) {
	o := sampleOrder()
	o.Items[0].ProductName = `<script>alert("x")</script>`
	owner := sampleOwner()
	owner.DisplayName = "<b>Anna</b>"

	body := BuildCustomerConfirmationBody(o, owner)

	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "<b>Anna</b>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestCustomizationHTML_MalformedPayloadIgnored(t *testing.T) {
	assert.Empty(t, customizationHTML(json.RawMessage(`not-json`)))
	assert.Empty(t, customizationHTML(nil))
	assert.Empty(t, customizationHTML(json.RawMessage(`{}`)))
}
