package order

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/order/dto"
)

type UseCase interface {
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)
	ListOrders(ctx context.Context, customerID string, page, pageSize int) ([]model.Order, int, error)
	GetOrder(ctx context.Context, customerID, orderID string) (*model.Order, error)
	HandlePaymentWebhook(ctx context.Context, paymentID string) error
}
