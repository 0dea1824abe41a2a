package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// Subtotal / Total Invariants
// ============================================

func TestItem_ComputeSubtotal(t *testing.T) {
	item := Item{Quantity: 3, UnitPrice: money("12.50")}
	item.ComputeSubtotal()

	assert.True(t, item.Subtotal.Equal(money("37.50")))
}

func TestItem_ComputeSubtotal_SingleUnit(t *testing.T) {
	item := Item{Quantity: 1, UnitPrice: money("0.01")}
	item.ComputeSubtotal()

	assert.True(t, item.Subtotal.Equal(money("0.01")))
}

func TestRecomputeTotal(t *testing.T) {
	items := []Item{
		{Quantity: 2, UnitPrice: money("10.00")},
		{Quantity: 1, UnitPrice: money("5.00")},
	}
	for i := range items {
		items[i].ComputeSubtotal()
	}

	total := RecomputeTotal(items)

	assert.True(t, total.Equal(money("25.00")), "expected 25.00, got %s", total)
}

func TestRecomputeTotal_Empty(t *testing.T) {
	total := RecomputeTotal(nil)
	assert.True(t, total.Equal(decimal.Zero))
}

func TestRecomputeTotal_MatchesItemSubtotals(t *testing.T) {
	items := []Item{
		{Quantity: 4, UnitPrice: money("3.25")},
		{Quantity: 2, UnitPrice: money("1.10")},
		{Quantity: 7, UnitPrice: money("0.99")},
	}
	want := decimal.Zero
	for i := range items {
		items[i].ComputeSubtotal()
		want = want.Add(items[i].Subtotal)
	}

	assert.True(t, RecomputeTotal(items).Equal(want))
}

// ============================================
// Status helpers
// ============================================

func TestStatus_IsValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, Status("shipped").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusDraft.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
}

func TestDelivery_Address(t *testing.T) {
	d := Delivery{Street: "Calle Principal", HouseNumber: "123", Location: "Ardales"}
	assert.Equal(t, "Calle Principal, 123, Ardales", d.Address())
}
