package notify

import (
	"fmt"
	"time"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
)

// Message builders for each customer-facing lifecycle event. Copy lives here
// so the lifecycle service stays free of wording concerns.

func ConfirmedMessage(o *orders.Order) Message {
	return Message{
		Subject: fmt.Sprintf("Order %s confirmed", o.OrderNumber),
		Body: fmt.Sprintf("Hi %s, your order %s is confirmed. We'll text you when it's ready for pickup at %s.",
			o.CustomerName, o.OrderNumber, o.StoreLocation),
	}
}

func ReadyMessage(o *orders.Order, window time.Duration) Message {
	mins := int(window / time.Minute)
	return Message{
		Subject: fmt.Sprintf("Order %s is ready for pickup", o.OrderNumber),
		Body: fmt.Sprintf("Hi %s, order %s is ready at %s. Show pickup code %s at the counter. Please collect within %d minutes.",
			o.CustomerName, o.OrderNumber, o.StoreLocation, o.PickupCode, mins),
	}
}

func CancelledMessage(o *orders.Order) Message {
	return Message{
		Subject: fmt.Sprintf("Order %s cancelled", o.OrderNumber),
		Body: fmt.Sprintf("Hi %s, your order %s has been cancelled. Contact %s if this is unexpected.",
			o.CustomerName, o.OrderNumber, o.StoreLocation),
	}
}

func NoShowMessage(o *orders.Order) Message {
	return Message{
		Subject: fmt.Sprintf("Order %s pickup window expired", o.OrderNumber),
		Body: fmt.Sprintf("Hi %s, the pickup window for order %s has expired and the order was returned to the shelf. Call %s to rearrange.",
			o.CustomerName, o.OrderNumber, o.StoreLocation),
	}
}

func ReminderMessage(o *orders.Order, remaining string) Message {
	return Message{
		Subject: fmt.Sprintf("Order %s pickup reminder", o.OrderNumber),
		Body: fmt.Sprintf("Reminder: order %s is waiting at %s. Time left to collect: %s.",
			o.OrderNumber, o.StoreLocation, remaining),
	}
}

func SubstitutionRequestMessage(o *orders.Order, item *orders.LineItem, ps orders.PendingSubstitution) Message {
	body := fmt.Sprintf("Order %s: %s is out of stock. Can we substitute %s? Reply YES to approve or NO to keep your original preference.",
		o.OrderNumber, item.ProductName, ps.ReplacementProductName)
	if ps.Note != "" {
		body += " Note from the store: " + ps.Note
	}
	return Message{
		Subject: fmt.Sprintf("Order %s: substitution approval needed", o.OrderNumber),
		Body:    body,
	}
}

func StoreNewOrderMessage(orderNumber, customerName, storeLocation string, total float64, itemCount int) Message {
	return Message{
		Subject: fmt.Sprintf("New pickup order %s", orderNumber),
		Body: fmt.Sprintf("New pickup order %s for %s at %s: %d item(s), total $%.2f. Confirm it in the dashboard to start preparation.",
			orderNumber, customerName, storeLocation, itemCount, total),
	}
}
