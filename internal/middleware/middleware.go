package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/auth"
	"github.com/fekuna/cave-storefront/internal/httpx"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an ID and logs it once it completes.
func RequestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if uid := auth.GetUserID(c); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			if len(c.Errors) > 0 {
				fields = append(fields, zap.Error(c.Errors.Last().Err))
			}
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Info("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
	}
}

func Recovery(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.ByteString("stack", debug.Stack()),
				)
				httpx.Error(c, apperror.Internal(fmt.Errorf("panic: %v", rec), ""))
			}
		}()
		c.Next()
	}
}

func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed["*"] || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept-Language,X-Request-ID")
			c.Header("Access-Control-Max-Age", "600")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Locale resolves fr/en from ?locale= then Accept-Language.
func Locale(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := tr.Resolve(c.Query("locale"), c.GetHeader("Accept-Language"))
		httpx.SetLocale(c, locale, tr)
		c.Header("Content-Language", locale)
		c.Next()
	}
}

const sessionCookie = "sb-access-token"

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

// Authenticate verifies the Supabase session token. With required=false,
// anonymous requests pass through without a user.
func Authenticate(v *auth.Verifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if required {
				httpx.Error(c, apperror.ErrUnauthorized)
				return
			}
			c.Next()
			return
		}

		user, err := v.Verify(token)
		if err != nil {
			httpx.Error(c, apperror.ErrUnauthorized)
			return
		}
		auth.SetUser(c, user)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate. Tokens without a role fall back
// to the profiles table.
func RequireAdmin(lookup auth.RoleLookup, log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.GetUser(c)
		if user == nil {
			httpx.Error(c, apperror.ErrUnauthorized)
			return
		}
		if user.Role == "" && lookup != nil {
			role, err := lookup.GetRole(c.Request.Context(), user.UserID)
			if err != nil {
				log.Error("failed to look up profile role", zap.String("user_id", user.UserID), zap.Error(err))
				httpx.Error(c, err)
				return
			}
			user.Role = role
		}
		if !user.IsAdmin() {
			httpx.Error(c, apperror.ErrForbidden)
			return
		}
		c.Next()
	}
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// RateLimit counts requests per client IP. Limiter failures let the request
// through.
func RateLimit(l Limiter, name string, limit int64, window time.Duration, log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := fmt.Sprintf("rate_limit:%s:%s", name, c.ClientIP())
		ok, err := l.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			httpx.Error(c, apperror.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
