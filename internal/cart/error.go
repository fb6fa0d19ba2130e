package cart

import "errors"

var (
	// ErrSlotEmpty is returned by a Slot that holds nothing yet.
	ErrSlotEmpty = errors.New("cart slot is empty")

	ErrFailedLoadCart = errors.New("failed to load cart")
	ErrFailedSaveCart = errors.New("failed to save cart")
)

// DefaultSlotName matches the key the storefront client has always used.
const DefaultSlotName = "cartItems"
