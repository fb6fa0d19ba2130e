package order

import (
	"fmt"

	"maillot-be/internal/utils"
)

// MaxItemQty bounds a single line so it fits the qty column.
const MaxItemQty = 10000

// Validate checks the shape of a checkout submission. Prices are checked for
// sign only; they are persisted as submitted.
func Validate(in CreateOrderInput) error {
	vErr := &ValidationError{}

	switch {
	case in.OrderItems == nil:
		vErr.add("orderItems", "orderItems is required")
	case len(in.OrderItems) == 0:
		vErr.add("orderItems", "No order items")
	}

	for i, it := range in.OrderItems {
		field := fmt.Sprintf("orderItems[%d]", i)
		if utils.IsBlank(it.Product) {
			vErr.add(field+".product", fmt.Sprintf("item %d: product is required", i))
		}
		if utils.IsBlank(it.Name) {
			vErr.add(field+".name", fmt.Sprintf("item %d: name is required", i))
		}
		switch {
		case it.Qty < 1:
			vErr.add(field+".qty", fmt.Sprintf("item %d: qty must be at least 1", i))
		case it.Qty > MaxItemQty:
			vErr.add(field+".qty", fmt.Sprintf("item %d: qty must not exceed %d", i, MaxItemQty))
		}
		if it.Price < 0 {
			vErr.add(field+".price", fmt.Sprintf("item %d: price must not be negative", i))
		}
		if utils.IsBlank(it.Image) {
			vErr.add(field+".image", fmt.Sprintf("item %d: image is required", i))
		}
	}

	if in.CustomerDetails == nil {
		vErr.add("customerDetails", "customerDetails is required")
	} else {
		cd := in.CustomerDetails
		for _, f := range []struct{ name, value string }{
			{"name", cd.Name},
			{"email", cd.Email},
			{"address", cd.Address},
			{"phone", cd.Phone},
		} {
			if utils.IsBlank(f.value) {
				vErr.add("customerDetails."+f.name, fmt.Sprintf("customer %s is required", f.name))
			}
		}
	}

	for _, p := range []struct {
		name  string
		value float64
	}{
		{"itemsPrice", in.ItemsPrice},
		{"taxPrice", in.TaxPrice},
		{"shippingPrice", in.ShippingPrice},
		{"totalPrice", in.TotalPrice},
	} {
		if p.value < 0 {
			vErr.add(p.name, fmt.Sprintf("%s must not be negative", p.name))
		}
	}

	return vErr.orNil()
}
