package order

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusTracking  Status = "tracking"
	StatusDelivered Status = "delivered"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusTracking, StatusDelivered:
		return true
	}
	return false
}

type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// OrderItem is frozen at checkout; later product edits never reach it.
type OrderItem struct {
	Product string  `json:"product"`
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Price   float64 `json:"price"`
	Image   string  `json:"image"`

	// Populated on the single-order read path when the product still exists.
	ProductInfo *ProductSummary `json:"productInfo,omitempty"`
}

func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Qty)
}

// ProductSummary is the live projection of the referenced product.
type ProductSummary struct {
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Images []string `json:"images"`
}

// PaymentResult is the opaque confirmation stored by markPaid.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type Order struct {
	ID              string          `json:"id"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ItemsPrice      float64         `json:"itemsPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CreateOrderInput is a checkout submission. OrderItems is nil when the
// field was absent and empty when it was sent as [].
type CreateOrderInput struct {
	OrderItems      []OrderItem      `json:"orderItems"`
	CustomerDetails *CustomerDetails `json:"customerDetails"`
	ItemsPrice      float64          `json:"itemsPrice"`
	TaxPrice        float64          `json:"taxPrice"`
	ShippingPrice   float64          `json:"shippingPrice"`
	TotalPrice      float64          `json:"totalPrice"`
}
