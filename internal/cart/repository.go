package cart

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/model"
)

type Repository interface {
	// FindLines returns the customer's items joined with their products,
	// oldest first. Product is nil for rows whose product was removed.
	FindLines(ctx context.Context, customerID string) ([]model.CartLine, error)
	FindItem(ctx context.Context, customerID, itemID string) (*model.CartItem, error)
	FindByProduct(ctx context.Context, customerID, productID string) (*model.CartItem, error)
	Save(ctx context.Context, item *model.CartItem) error
	Delete(ctx context.Context, customerID, itemID string) (bool, error)
	Clear(ctx context.Context, customerID string) error
}

// ProductFinder loads the product a cart line points to.
type ProductFinder interface {
	FindByID(ctx context.Context, id string) (*model.WineProduct, error)
}
