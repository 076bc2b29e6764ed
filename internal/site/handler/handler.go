package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var disallowedPaths = []string{"/api/", "/admin/", "/panier", "/cart", "/checkout"}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type SiteHandler struct {
	publicBaseURL string
	production    bool
	checks        map[string]Check
	logger        logger.ZapLogger
}

func NewSiteHandler(publicBaseURL string, production bool, checks map[string]Check, log logger.ZapLogger) *SiteHandler {
	return &SiteHandler{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		production:    production,
		checks:        checks,
		logger:        log,
	}
}

func (h *SiteHandler) RegisterRoutes(r *gin.Engine, api *gin.RouterGroup) {
	r.GET("/healthz", h.Health)
	api.GET("/robots", h.Robots)
}

// RobotsTxt blocks every crawler outside production.
func RobotsTxt(publicBaseURL string, production bool) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if !production {
		b.WriteString("Disallow: /\n")
		return b.String()
	}
	b.WriteString("Allow: /\n")
	for _, p := range disallowedPaths {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + strings.TrimRight(publicBaseURL, "/") + "/sitemap.xml\n")
	return b.String()
}

func (h *SiteHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.String(http.StatusOK, RobotsTxt(h.publicBaseURL, h.production))
}

func (h *SiteHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
