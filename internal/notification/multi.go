package notification

import (
	"context"
	"errors"
)

// MultiNotifier sends msg through every notifier in order and joins the
// failures. One failing notifier does not stop the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
