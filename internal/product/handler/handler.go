package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/product"
	"github.com/fekuna/cave-storefront/internal/product/dto"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts the storefront catalog on api and the back-office
// endpoints on admin.
func (h *ProductHandler) RegisterRoutes(api, admin *gin.RouterGroup) {
	api.GET("/products", h.ListCatalog)
	api.GET("/products/:id", h.GetCatalogProduct)

	admin.GET("/products", h.ListProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PATCH("/products/bulk", h.BulkUpdate)
	admin.DELETE("/products/bulk", h.BulkDelete)
	admin.POST("/products/reindex", h.Reindex)
	admin.GET("/products/:id", h.GetProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/products/:id/images", h.UploadImage)
	admin.DELETE("/products/:id/images/:imageId", h.DeleteImage)
}

func (h *ProductHandler) bindFilters(c *gin.Context) (*dto.ProductFilters, bool) {
	var filters dto.ProductFilters
	if err := httpx.BindQuery(c, &filters); err != nil {
		httpx.Error(c, err)
		return nil, false
	}
	if filters.MinPrice > 0 && filters.MaxPrice > 0 && filters.MinPrice > filters.MaxPrice {
		httpx.Error(c, apperror.Validation("validation_failed", "").WithDetails(map[string]any{
			"fields": map[string]string{"min_price": "ltefield=max_price"},
		}))
		return nil, false
	}
	filters.Page, filters.PageSize = httpx.Page(c, defaultPageSize, maxPageSize)
	return &filters, true
}

func (h *ProductHandler) ListCatalog(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}

	products, count, err := h.uc.ListCatalog(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list catalog", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.List(c, dto.NewCatalogProducts(products, httpx.Locale(c)), count, filters.Page, filters.PageSize)
}

func (h *ProductHandler) GetCatalogProduct(c *gin.Context) {
	p, err := h.uc.GetCatalogProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, dto.NewCatalogProduct(p, httpx.Locale(c)))
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters, ok := h.bindFilters(c)
	if !ok {
		return
	}

	products, count, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.List(c, products, count, filters.Page, filters.PageSize)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, p)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create product", zap.String("sku", input.SKU), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, p)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	input.ID = c.Param("id")

	p, err := h.uc.UpdateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to update product", zap.String("product_id", input.ID), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkResponse struct {
	Results   []dto.BulkResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

func writeBulk(c *gin.Context, results []dto.BulkResult) {
	resp := bulkResponse{Results: results}
	for _, r := range results {
		if r.OK {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	httpx.OK(c, resp)
}

func (h *ProductHandler) BulkUpdate(c *gin.Context) {
	var input dto.BulkUpdateInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}
	input.ActorID = auth.GetUserID(c)

	results, err := h.uc.BulkUpdate(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to bulk update products", zap.Int("count", len(input.IDs)), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	writeBulk(c, results)
}

func (h *ProductHandler) BulkDelete(c *gin.Context) {
	var input dto.BulkDeleteInput
	if err := httpx.BindJSON(c, &input); err != nil {
		httpx.Error(c, err)
		return
	}

	results, err := h.uc.BulkDelete(c.Request.Context(), input.IDs)
	if err != nil {
		h.logger.Error("failed to bulk delete products", zap.Int("count", len(input.IDs)), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	writeBulk(c, results)
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dto.MaxImageBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(c, apperror.ErrImageTooLarge)
			return
		}
		httpx.Error(c, apperror.Validation("invalid_request", "multipart field \"file\" is required"))
		return
	}
	if fh.Size > dto.MaxImageBytes {
		httpx.Error(c, apperror.ErrImageTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		httpx.Error(c, apperror.Internal(err, ""))
		return
	}
	defer f.Close()

	primary, _ := strconv.ParseBool(c.PostForm("is_primary"))
	img, err := h.uc.AddImage(c.Request.Context(), &dto.AddImageInput{
		ProductID: c.Param("id"),
		Filename:  fh.Filename,
		Size:      fh.Size,
		Body:      f,
		AltText:   c.PostForm("alt_text"),
		IsPrimary: primary,
	})
	if err != nil {
		h.logger.Error("failed to upload product image", zap.String("product_id", c.Param("id")), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, img)
}

func (h *ProductHandler) DeleteImage(c *gin.Context) {
	if err := h.uc.DeleteImage(c.Request.Context(), c.Param("id"), c.Param("imageId")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Reindex(c *gin.Context) {
	n, err := h.uc.Reindex(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to reindex products", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"indexed": n})
}
