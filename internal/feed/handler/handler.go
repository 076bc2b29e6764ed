package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/cave-storefront/internal/feed"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	uc     feed.UseCase
	logger logger.ZapLogger
}

func NewFeedHandler(uc feed.UseCase, log logger.ZapLogger) *FeedHandler {
	return &FeedHandler{
		uc:     uc,
		logger: log,
	}
}

// RegisterRoutes mounts the public Google feed on api and every sync
// operation on admin. Both groups share the same path prefix.
func (h *FeedHandler) RegisterRoutes(api, admin *gin.RouterGroup) {
	api.GET("/google-shopping/sync", h.GoogleFeed)

	admin.POST("/meta/sync", h.SyncMeta)
	admin.GET("/meta/sync", h.MetaLogs)
	admin.DELETE("/meta/sync", h.DeleteMeta)
	admin.POST("/google-shopping/sync", h.SyncGoogle)
	admin.DELETE("/google-shopping/sync", h.DeleteGoogle)
	admin.GET("/google-shopping/logs", h.GoogleLogs)
}

// skus accepts ?skus=A,B and repeated ?skus=A&skus=B.
func skus(c *gin.Context) []string {
	var out []string
	for _, v := range c.QueryArray("skus") {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (h *FeedHandler) SyncMeta(c *gin.Context) {
	entry, err := h.uc.SyncMeta(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, entry)
}

func (h *FeedHandler) DeleteMeta(c *gin.Context) {
	entry, err := h.uc.DeleteMeta(c.Request.Context(), skus(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, entry)
}

func (h *FeedHandler) SyncGoogle(c *gin.Context) {
	entry, err := h.uc.SyncGoogle(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, entry)
}

func (h *FeedHandler) DeleteGoogle(c *gin.Context) {
	entry, err := h.uc.DeleteGoogle(c.Request.Context(), skus(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, entry)
}

func (h *FeedHandler) logs(c *gin.Context, platform string) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.uc.SyncLogs(c.Request.Context(), platform, limit)
	if err != nil {
		h.logger.Error("failed to list sync logs", zap.String("platform", platform), zap.Error(err))
		httpx.Error(c, err)
		return
	}
	if logs == nil {
		logs = []model.SyncLog{}
	}
	httpx.OK(c, gin.H{"items": logs})
}

func (h *FeedHandler) MetaLogs(c *gin.Context)   { h.logs(c, model.PlatformMeta) }
func (h *FeedHandler) GoogleLogs(c *gin.Context) { h.logs(c, model.PlatformGoogle) }

// GoogleFeed serves the RSS product feed Merchant Center fetches on schedule.
// Without ?locale= the feed uses the configured content language, not the
// fetcher's Accept-Language.
func (h *FeedHandler) GoogleFeed(c *gin.Context) {
	doc, err := h.uc.GoogleFeed(c.Request.Context(), c.Query("locale"))
	if err != nil {
		h.logger.Error("failed to render google feed", zap.Error(err))
		httpx.Error(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", doc)
}
