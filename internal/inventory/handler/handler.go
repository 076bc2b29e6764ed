package handler

import (
	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/inventory"
	"github.com/fekuna/cave-storefront/internal/inventory/dto"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.POST("/inventory/adjust", h.AdjustStock)
	admin.GET("/inventory/movements", h.ListMovements)
	admin.GET("/inventory/low-stock", h.ListLowStock)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var input dto.AdjustStockInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	input.ActorID = auth.GetUserID(c)

	movement, err := h.uc.AdjustStock(c.Request.Context(), &input)
	if err != nil {
		h.logger.Warn("stock adjustment rejected",
			zap.String("product_id", input.ProductID),
			zap.Int("change", input.QuantityChange),
			zap.Error(err),
		)
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, movement)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filters dto.MovementFilters
	if err := httpx.BindQuery(c, &filters); err != nil {
		httpx.Error(c, err)
		return
	}
	filters.Page, filters.PageSize = httpx.Page(c, 50, 200)

	items, count, err := h.uc.ListMovements(c.Request.Context(), &filters)
	if err != nil {
		h.logger.Error("failed to list stock movements", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.List(c, items, count, filters.Page, filters.PageSize)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	page, size := httpx.Page(c, 50, 200)

	items, count, err := h.uc.ListLowStock(c.Request.Context(), page, size)
	if err != nil {
		h.logger.Error("failed to list low stock", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.List(c, items, count, page, size)
}
