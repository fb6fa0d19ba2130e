package notification

import "errors"

var (
	ErrNoRecipient = errors.New("message has no recipient")
	ErrRender      = errors.New("failed to render email")
	ErrDelivery    = errors.New("failed to deliver message")
	ErrPublish     = errors.New("failed to publish event")
)
