package handler

import (
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/vat"
	"github.com/gin-gonic/gin"
)

type VATHandler struct {
	shipping vat.ShippingRules
}

func NewVATHandler(shipping vat.ShippingRules) *VATHandler {
	return &VATHandler{shipping: shipping}
}

func (h *VATHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/vat/rates", h.Rates)
	api.POST("/vat/quote", h.Quote)
}

type quoteRequest struct {
	SubtotalCents int64  `json:"subtotal_cents" binding:"min=0"`
	ShippingCents *int64 `json:"shipping_cents" binding:"omitempty,min=0"`
	Country       string `json:"country" binding:"required,len=2"`
}

func (h *VATHandler) Rates(c *gin.Context) {
	httpx.OK(c, gin.H{"rates": vat.Rates(), "tolerance_cents": vat.Tolerance})
}

// Quote prices shipping from the shop rules unless the caller supplies it.
func (h *VATHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := httpx.BindJSON(c, &req); err != nil {
		httpx.Error(c, err)
		return
	}

	var shipping int64
	if req.ShippingCents != nil {
		shipping = *req.ShippingCents
	} else {
		cost, err := h.shipping.Cost(req.SubtotalCents, req.Country)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		shipping = cost
	}

	b, err := vat.Calculate(req.SubtotalCents, shipping, req.Country)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, b)
}
