// Package pricing derives the checkout figures shown to the customer and
// submitted with an order.
package pricing

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

const (
	FreeShippingThreshold = 100.0
	FlatShipping          = 10.0
	PromoRate             = 0.10

	// PromoCode is the only code the storefront recognises.
	PromoCode = "SAVE10"
)

// Breakdown is the reconciled price set for one cart snapshot. Tax is always
// zero; it is kept so the order shape stays stable.
type Breakdown struct {
	Subtotal float64 `json:"itemsPrice"`
	Shipping float64 `json:"shippingPrice"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"taxPrice"`
	Total    float64 `json:"totalPrice"`
}

// Reconcile applies the fixed shipping and promo rules to subtotal.
func Reconcile(subtotal float64, promoApplied bool) Breakdown {
	shipping := FlatShipping
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}

	discount := 0.0
	if promoApplied {
		discount = PromoRate * subtotal
	}

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Tax:      0,
		Total:    subtotal + shipping - discount,
	}
}

// PromoSession tracks whether the promo code has been applied during one
// shopping session. Once applied it stays applied.
type PromoSession struct {
	mu      sync.Mutex
	applied bool
}

// Apply reports whether code is (or already was) the accepted promo code.
// A wrong code after a successful one does not revoke it.
func (p *PromoSession) Apply(code string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.applied {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(code), PromoCode) {
		p.applied = true
	}
	return p.applied
}

func (p *PromoSession) Applied() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

// FormatMoney renders an amount with two decimals, e.g. "$110.00".
func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", math.Round(v*100)/100)
}
