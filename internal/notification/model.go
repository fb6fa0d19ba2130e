// Package notification delivers best-effort side effects of a placed
// order: confirmation mail to the customer, an alert to the admin and an
// order.created event. Nothing here can fail an order.
package notification

import (
	"context"
)

const (
	SubjectCustomer = "Order Confirmation - YourMaillot"
	SubjectAdmin    = "New Order Received"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers one message. Implementations must honour ctx.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
