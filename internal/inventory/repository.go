package inventory

import (
	"context"

	"github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/internal/model"
)

type Repository interface {
	// AdjustStockWithMovement applies movement.QuantityChange under a row
	// lock, fills in the before/after quantities and records the movement.
	AdjustStockWithMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.WineProduct, int, error)
}
