package model

import "time"

const (
	MinCartQuantity = 1
	MaxCartQuantity = 12
)

const (
	WarningInsufficientStock = "insufficient_stock"
	WarningOutOfStock        = "out_of_stock"
	WarningUnavailable       = "unavailable"
)

type CartItem struct {
	ID         string    `db:"id" json:"id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CartLine is a cart item joined with the product it points to. Product is
// nil when the product row no longer exists.
type CartLine struct {
	CartItem
	Product *WineProduct
}
