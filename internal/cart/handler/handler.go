package handler

import (
	"net/http"

	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/cart"
	"github.com/fekuna/cave-storefront/internal/cart/dto"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes expects customer to require authentication.
func (h *CartHandler) RegisterRoutes(customer *gin.RouterGroup) {
	customer.GET("/cart", h.GetCart)
	customer.POST("/cart", h.AddItem)
	customer.DELETE("/cart", h.Clear)
	customer.PUT("/cart/:itemId", h.UpdateItem)
	customer.DELETE("/cart/:itemId", h.RemoveItem)
}

func (h *CartHandler) writeCart(c *gin.Context, status int) {
	customerID := auth.GetUserID(c)
	summary, err := h.uc.GetCart(c.Request.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to load cart", zap.String("customer_id", customerID), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	c.JSON(status, dto.NewCartView(summary, httpx.Locale(c)))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	if _, err := h.uc.AddItem(c.Request.Context(), auth.GetUserID(c), req.ProductID, req.Quantity); err != nil {
		httpx.Error(c, err)
		return
	}
	h.writeCart(c, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateItemRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	if _, err := h.uc.UpdateItem(c.Request.Context(), auth.GetUserID(c), c.Param("itemId"), *req.Quantity); err != nil {
		httpx.Error(c, err)
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.uc.RemoveItem(c.Request.Context(), auth.GetUserID(c), c.Param("itemId")); err != nil {
		httpx.Error(c, err)
		return
	}
	h.writeCart(c, http.StatusOK)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.uc.Clear(c.Request.Context(), auth.GetUserID(c)); err != nil {
		h.logger.Error("failed to clear cart", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
