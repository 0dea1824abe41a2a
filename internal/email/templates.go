package email

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/example/menu-orders/internal/domain/order"
	"github.com/example/menu-orders/internal/notify"
)

// customization mirrors the opaque per-item payload closely enough to
// render it; unknown fields are ignored.
type customization struct {
	DeselectedIngredients []string `json:"deselected_ingredients"`
	SelectedExtras        []struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	} `json:"selected_extras"`
	AdditionalNotes string `json:"additional_notes"`
}

func itemRows(items []order.Item) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s €</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s €</td>
			</tr>`,
			html.EscapeString(item.ProductName),
			customizationHTML(item.Customization),
			item.Quantity,
			item.UnitPrice.StringFixed(2),
			item.Subtotal.StringFixed(2),
		))
	}
	return b.String()
}

func customizationHTML(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var c customization
	if err := json.Unmarshal(raw, &c); err != nil {
		return ""
	}

	var notes []string
	for _, ing := range c.DeselectedIngredients {
		notes = append(notes, "without "+html.EscapeString(ing))
	}
	for _, extra := range c.SelectedExtras {
		notes = append(notes, "+ "+html.EscapeString(extra.Name))
	}
	if c.AdditionalNotes != "" {
		notes = append(notes, html.EscapeString(c.AdditionalNotes))
	}
	if len(notes) == 0 {
		return ""
	}
	return `<br><span style="font-size: 12px; color: #888;">` + strings.Join(notes, ", ") + `</span>`
}

func deliveryBlock(o *order.Order) string {
	return fmt.Sprintf(
		`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Delivery</p>
			<p style="margin: 5px 0 0 0;">%s</p>
			<p style="margin: 5px 0 0 0;">Phone: %s</p>
			%s
		</div>`,
		html.EscapeString(o.Delivery.Address()),
		html.EscapeString(o.Delivery.Phone),
		notesLine(o.Delivery.Notes),
	)
}

func notesLine(notes string) string {
	if notes == "" {
		return ""
	}
	return fmt.Sprintf(`<p style="margin: 5px 0 0 0; color: #888;">Notes: %s</p>`, html.EscapeString(notes))
}

func itemsTable(o *order.Order) string {
	return fmt.Sprintf(
		`<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>
		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">%s €</span>
		</div>`,
		itemRows(o.Items),
		o.Total.StringFixed(2),
	)
}

func page(title, inner string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s
	</div>
</body>
</html>`, html.EscapeString(title), inner)
}

// BuildCustomerConfirmationBody renders the HTML confirmation sent to the
// customer after the order becomes pending.
func BuildCustomerConfirmationBody(o *order.Order, owner notify.OwnerSummary) string {
	inner := fmt.Sprintf(
		`<p style="margin-top: 0;">Hi %s, thank you for your order!</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">#%d</p>
		</div>
		%s
		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Your order</h2>
		%s`,
		html.EscapeString(owner.DisplayName), o.ID, deliveryBlock(o), itemsTable(o),
	)
	return page("Order confirmed", inner)
}

// BuildOperatorNotificationBody renders the new-order notification sent to
// the operator mailbox.
func BuildOperatorNotificationBody(o *order.Order, owner notify.OwnerSummary) string {
	inner := fmt.Sprintf(
		`<p style="margin-top: 0;">New order <strong>#%d</strong> from %s (%s).</p>
		%s
		%s`,
		o.ID, html.EscapeString(owner.DisplayName), html.EscapeString(owner.Email),
		deliveryBlock(o), itemsTable(o),
	)
	return page("New order received", inner)
}

// BuildCancellationBody renders the cancellation notice sent to the
// operator when a customer cancels.
func BuildCancellationBody(o *order.Order, owner notify.OwnerSummary) string {
	inner := fmt.Sprintf(
		`<p style="margin-top: 0;">Order <strong>#%d</strong> was cancelled by %s (%s).</p>
		<p>Order total was %s €.</p>
		%s`,
		o.ID, html.EscapeString(owner.DisplayName), html.EscapeString(owner.Email),
		o.Total.StringFixed(2),
		deliveryBlock(o),
	)
	return page("Order cancelled", inner)
}
