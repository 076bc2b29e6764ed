package product

import (
	"context"
	"io"

	inventorydto "github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/product/dto"
)

type UseCase interface {
	// Storefront
	ListCatalog(ctx context.Context, filters *dto.ProductFilters) ([]model.WineProduct, int, error)
	GetCatalogProduct(ctx context.Context, idOrSlug string) (*model.WineProduct, error)

	// Back-office
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.WineProduct, int, error)
	GetProduct(ctx context.Context, id string) (*model.WineProduct, error)
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.WineProduct, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.WineProduct, error)
	DeleteProduct(ctx context.Context, id string) error
	BulkUpdate(ctx context.Context, input *dto.BulkUpdateInput) ([]dto.BulkResult, error)
	BulkDelete(ctx context.Context, ids []string) ([]dto.BulkResult, error)
	AddImage(ctx context.Context, input *dto.AddImageInput) (*model.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID string) error
	Reindex(ctx context.Context) (int, error)
}

// StockAdjuster applies audited stock changes. Implemented by the inventory
// usecase.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, input *inventorydto.AdjustStockInput) (*model.StockMovement, error)
}

// ImageStore persists uploaded product images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// ListCachePattern matches every cached storefront listing.
const ListCachePattern = "products:list:*"
