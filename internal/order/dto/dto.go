package dto

import (
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/vat"
)

type ShippingAddress struct {
	Name       string `json:"name" binding:"required,max=200"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	City       string `json:"city" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"max=40"`
}

// PlaceOrderInput carries the totals the client displayed so they can be
// checked against the server-side computation.
type PlaceOrderInput struct {
	CustomerID string          `json:"-"`
	Email      string          `json:"email" binding:"required,email"`
	Country    string          `json:"country" binding:"required,len=2"`
	Locale     string          `json:"locale" binding:"omitempty,oneof=fr en"`
	Shipping   ShippingAddress `json:"shipping_address"`
	Totals     vat.Totals      `json:"totals"`
}

type OrderView struct {
	*model.Order
	Items      []model.OrderItem `json:"items"`
	PaymentURL *string           `json:"payment_url"`
}

func NewOrderView(o *model.Order) OrderView {
	items := o.Items
	if items == nil {
		items = []model.OrderItem{}
	}
	return OrderView{Order: o, Items: items, PaymentURL: o.PaymentURL}
}
