package product

import (
	"context"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.WineProduct) error
	FindByID(ctx context.Context, id string) (*model.WineProduct, error)
	FindBySlug(ctx context.Context, slug string) (*model.WineProduct, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.WineProduct, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.WineProduct, int, error)
	FindAllAvailable(ctx context.Context) ([]model.WineProduct, error)
	ListSKUs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, product *model.WineProduct) error
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)

	// Bulk writes return the IDs that were actually changed.
	SoftDelete(ctx context.Context, ids []string, at time.Time) ([]string, error)
	SetActive(ctx context.Context, ids []string, active bool, at time.Time) ([]string, error)
	SetPrice(ctx context.Context, ids []string, priceCents int64, at time.Time) ([]string, error)

	// UpsertBySKU reports whether the row was inserted rather than updated.
	UpsertBySKU(ctx context.Context, product *model.WineProduct) (bool, error)

	ListImages(ctx context.Context, productID string) ([]model.ProductImage, error)
	AddImage(ctx context.Context, image *model.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID string) (*model.ProductImage, error)
}
