package handler

import (
	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/order"
	"github.com/fekuna/cave-storefront/internal/order/dto"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts checkout on customer and the payment webhook on api.
func (h *OrderHandler) RegisterRoutes(api, customer *gin.RouterGroup) {
	customer.POST("/orders", h.PlaceOrder)
	customer.GET("/orders", h.ListOrders)
	customer.GET("/orders/:id", h.GetOrder)
	api.POST("/payments/webhook", h.PaymentWebhook)
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var input dto.PlaceOrderInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	input.CustomerID = auth.GetUserID(c)
	if input.Locale == "" {
		input.Locale = httpx.Locale(c)
	}

	o, err := h.uc.PlaceOrder(c.Request.Context(), &input)
	if err != nil {
		h.logger.Info("order rejected", zap.String("customer_id", input.CustomerID), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, dto.NewOrderView(o))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, size := httpx.Page(c, 20, 100)
	orders, total, err := h.uc.ListOrders(c.Request.Context(), auth.GetUserID(c), page, size)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	views := make([]dto.OrderView, len(orders))
	for i := range orders {
		views[i] = dto.NewOrderView(&orders[i])
	}
	httpx.List(c, views, total, page, size)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.uc.GetOrder(c.Request.Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, dto.NewOrderView(o))
}

// PaymentWebhook receives the provider's form-encoded notification.
func (h *OrderHandler) PaymentWebhook(c *gin.Context) {
	paymentID := c.PostForm("id")
	if err := h.uc.HandlePaymentWebhook(c.Request.Context(), paymentID); err != nil {
		h.logger.Error("payment webhook failed", zap.String("payment_id", paymentID), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"received": true})
}
