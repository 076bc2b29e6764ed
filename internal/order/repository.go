package order

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
)

type Repository interface {
	// Create stores the order with its items, takes the stock with sale
	// movements and empties the customer's cart in one transaction.
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*model.Order, error)
	FindByCustomer(ctx context.Context, customerID string, page, pageSize int) ([]model.Order, int, error)
	SetPayment(ctx context.Context, orderID, paymentID, paymentURL string) error
	// MarkPaid reports false when the order was not awaiting payment.
	MarkPaid(ctx context.Context, orderID string) (bool, error)
	// CancelAndRestock cancels an unpaid order and returns its stock. It
	// reports false when the order was not awaiting payment.
	CancelAndRestock(ctx context.Context, orderID, paymentStatus string) (bool, error)
}
