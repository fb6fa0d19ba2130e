package client

import (
	"context"

	"maillot-be/internal/cart"
	"maillot-be/internal/logger"
	"maillot-be/internal/order"
	"maillot-be/internal/pricing"

	"go.uber.org/zap"
)

// BuildOrder snapshots the cart into a checkout submission priced by the
// storefront rules.
func BuildOrder(items []cart.Item, promoApplied bool, customer order.CustomerDetails) (order.CreateOrderInput, pricing.Breakdown) {
	lines := make([]order.OrderItem, 0, len(items))
	subtotal := 0.0
	for _, it := range items {
		lines = append(lines, order.OrderItem{
			Product: it.ProductID,
			Name:    it.Name,
			Qty:     it.Quantity,
			Price:   it.Price,
			Image:   it.Image,
		})
		subtotal += it.LineTotal()
	}

	b := pricing.Reconcile(subtotal, promoApplied)
	return order.CreateOrderInput{
		OrderItems:      lines,
		CustomerDetails: &customer,
		ItemsPrice:      b.Subtotal,
		TaxPrice:        b.Tax,
		ShippingPrice:   b.Shipping,
		TotalPrice:      b.Total,
	}, b
}

// Checkout submits the cart. The cart is cleared only once the server has
// accepted the order; any failure leaves it untouched for a retry.
func (c *Client) Checkout(ctx context.Context, store *cart.Store, promo *pricing.PromoSession, customer order.CustomerDetails) (*order.Order, error) {
	if store.Len() == 0 {
		return nil, ErrEmptyCart
	}

	in, b := BuildOrder(store.Items(), promo != nil && promo.Applied(), customer)

	o, err := c.SubmitOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	store.Clear(ctx)
	logger.FromCtx(ctx).Info("order placed",
		zap.String("order_id", o.ID),
		zap.Float64("total_price", b.Total),
	)
	return o, nil
}
