package order

import (
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/google/uuid"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
)

// Event is the envelope published on the orders topic.
type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"order_number"`
	CustomerID    string             `json:"customer_id"`
	Email         string             `json:"email"`
	Locale        string             `json:"locale"`
	ShippingName  string             `json:"shipping_name"`
	Country       string             `json:"country"`
	SubtotalCents int64              `json:"subtotal_cents"`
	VATCents      int64              `json:"vat_cents"`
	ShippingCents int64              `json:"shipping_cents"`
	TotalCents    int64              `json:"total_cents"`
	PaymentURL    string             `json:"payment_url,omitempty"`
	Items         []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

func NewEvent(eventType string, o *model.Order) Event {
	payload := OrderPayload{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		Email:         o.Email,
		Locale:        o.Locale,
		ShippingName:  o.ShippingName,
		Country:       o.Country,
		SubtotalCents: o.SubtotalCents,
		VATCents:      o.VATCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
		Items:         make([]OrderItemPayload, 0, len(o.Items)),
	}
	if o.PaymentURL != nil {
		payload.PaymentURL = *o.PaymentURL
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, OrderItemPayload{
			ProductID:      it.ProductID,
			SKU:            it.SKU,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		})
	}
	return Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
