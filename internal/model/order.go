package model

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusExpired  = "expired"
	PaymentStatusRefunded = "refunded"
)

type Order struct {
	BaseModel
	OrderNumber    string  `db:"order_number" json:"order_number"`
	CustomerID     string  `db:"customer_id" json:"customer_id"`
	Email          string  `db:"email" json:"email"`
	Locale         string  `db:"locale" json:"locale"`
	Status         string  `db:"status" json:"status"`
	PaymentStatus  string  `db:"payment_status" json:"payment_status"`
	Country        string  `db:"country" json:"country"`
	VATRate        string  `db:"vat_rate" json:"vat_rate"`
	SubtotalCents  int64   `db:"subtotal_cents" json:"subtotal_cents"`
	VATCents       int64   `db:"vat_cents" json:"vat_cents"`
	ShippingCents  int64   `db:"shipping_cents" json:"shipping_cents"`
	TotalCents     int64   `db:"total_cents" json:"total_cents"`
	ShippingName   string  `db:"shipping_name" json:"shipping_name"`
	ShippingLine1  string  `db:"shipping_line1" json:"shipping_line1"`
	ShippingLine2  string  `db:"shipping_line2" json:"shipping_line2"`
	ShippingPostal string  `db:"shipping_postal_code" json:"shipping_postal_code"`
	ShippingCity   string  `db:"shipping_city" json:"shipping_city"`
	ShippingPhone  string  `db:"shipping_phone" json:"shipping_phone"`
	PaymentID      *string `db:"payment_id" json:"payment_id"`
	PaymentURL     *string `db:"payment_url" json:"payment_url"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

type OrderItem struct {
	ID             string `db:"id" json:"id"`
	OrderID        string `db:"order_id" json:"order_id"`
	ProductID      string `db:"product_id" json:"product_id"`
	SKU            string `db:"sku" json:"sku"`
	Name           string `db:"name" json:"name"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64  `db:"line_total_cents" json:"line_total_cents"`
}
