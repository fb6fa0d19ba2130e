package notification

import (
	"context"

	"maillot-be/internal/logger"

	"go.uber.org/zap"
)

// LogNotifier writes messages to the log instead of delivering them. Used
// when no relay is configured and alongside SMTP outside production.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	logger.FromCtx(ctx).Info("notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
