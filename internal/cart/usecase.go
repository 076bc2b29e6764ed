package cart

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
)

type UseCase interface {
	GetCart(ctx context.Context, customerID string) (*Summary, error)
	AddItem(ctx context.Context, customerID, productID string, quantity int) (*model.CartItem, error)
	// UpdateItem returns nil when quantity 0 removed the line.
	UpdateItem(ctx context.Context, customerID, itemID string, quantity int) (*model.CartItem, error)
	RemoveItem(ctx context.Context, customerID, itemID string) error
	Clear(ctx context.Context, customerID string) error
}
