package handler

import (
	"net/http"

	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/inquiry"
	"github.com/fekuna/cave-storefront/internal/inquiry/dto"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InquiryHandler struct {
	uc     inquiry.UseCase
	logger logger.ZapLogger
}

func NewInquiryHandler(uc inquiry.UseCase, log logger.ZapLogger) *InquiryHandler {
	return &InquiryHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts the public contact form behind contactGuard (rate
// limiting) and the staff desk on admin.
func (h *InquiryHandler) RegisterRoutes(api, admin *gin.RouterGroup, contactGuard ...gin.HandlerFunc) {
	api.POST("/contact", append(contactGuard, h.Submit)...)

	admin.GET("/inquiries", h.ListInquiries)
	admin.GET("/inquiries/statistics", h.Statistics)
	admin.GET("/inquiries/:id", h.GetInquiry)
	admin.PATCH("/inquiries/:id", h.UpdateInquiry)
	admin.DELETE("/inquiries/:id", h.DeleteInquiry)
	admin.POST("/inquiries/:id/anonymize", h.Anonymize)
}

func (h *InquiryHandler) Submit(c *gin.Context) {
	var input dto.CreateInquiryInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	if input.Locale == "" {
		input.Locale = httpx.Locale(c)
	}
	input.IPAddress = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()

	in, err := h.uc.Submit(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to store inquiry", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, dto.NewSubmissionResponse(in))
}

func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	var filters dto.InquiryFilters
	if err := httpx.BindQuery(c, &filters); err != nil {
		httpx.Error(c, err)
		return
	}
	filters.Page, filters.PageSize = httpx.Page(c, 25, 100)

	items, count, err := h.uc.ListInquiries(c.Request.Context(), &filters)
	if err != nil {
		h.logger.Error("failed to list inquiries", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.List(c, items, count, filters.Page, filters.PageSize)
}

func (h *InquiryHandler) GetInquiry(c *gin.Context) {
	in, err := h.uc.GetInquiry(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, in)
}

func (h *InquiryHandler) UpdateInquiry(c *gin.Context) {
	var input dto.UpdateInquiryInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	input.ID = c.Param("id")
	input.Actor = auth.GetUserID(c)

	in, err := h.uc.UpdateInquiry(c.Request.Context(), &input)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, in)
}

func (h *InquiryHandler) DeleteInquiry(c *gin.Context) {
	if err := h.uc.DeleteInquiry(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InquiryHandler) Anonymize(c *gin.Context) {
	in, err := h.uc.Anonymize(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, in)
}

func (h *InquiryHandler) Statistics(c *gin.Context) {
	stats, err := h.uc.Statistics(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to compute inquiry statistics", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, stats)
}
