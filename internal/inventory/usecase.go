package inventory

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
)

type UseCase interface {
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.WineProduct, int, error)
}
