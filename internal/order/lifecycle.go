package order

import (
	"fmt"
	"time"
)

type Transition string

const (
	TransitionMarkPaid      Transition = "mark_paid"
	TransitionMarkDelivered Transition = "mark_delivered"
	TransitionSetStatus     Transition = "set_status"
)

// Command is one administrative change to a persisted order.
type Command struct {
	Transition Transition
	Status     Status
	Payment    *PaymentResult
	At         time.Time
}

type effect func(o *Order, cmd Command) error

// transitions is the full lifecycle. Status writes are not forward-only:
// any enumerated status may be set at any time.
//
//	mark_paid       isPaid=true, paidAt, paymentResult      status untouched
//	mark_delivered  isDelivered=true, deliveredAt           status=delivered
//	set_status      status=<any valid>                      flags untouched
var transitions = map[Transition]effect{
	TransitionMarkPaid: func(o *Order, cmd Command) error {
		if !o.IsPaid {
			o.IsPaid = true
			o.PaidAt = timePtr(cmd.At)
		}
		o.PaymentResult = cmd.Payment
		return nil
	},
	TransitionMarkDelivered: func(o *Order, cmd Command) error {
		if !o.IsDelivered {
			o.IsDelivered = true
			o.DeliveredAt = timePtr(cmd.At)
		}
		// the only transition coupling a flag to the status enum
		o.Status = StatusDelivered
		return nil
	},
	TransitionSetStatus: func(o *Order, cmd Command) error {
		if !cmd.Status.Valid() {
			vErr := &ValidationError{}
			vErr.add("status", fmt.Sprintf("invalid status %q: must be one of pending, tracking, delivered", cmd.Status))
			return vErr
		}
		o.Status = cmd.Status
		return nil
	},
}

// Apply runs cmd against o in place and bumps UpdatedAt.
func Apply(o *Order, cmd Command) error {
	fn, ok := transitions[cmd.Transition]
	if !ok {
		return fmt.Errorf("unknown transition %q", cmd.Transition)
	}
	if err := fn(o, cmd); err != nil {
		return err
	}
	o.UpdatedAt = cmd.At
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
