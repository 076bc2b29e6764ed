package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

type UserContext struct {
	UserID string
	Email  string
	Role   string
}

func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type ctxKey struct{}

const ginUserKey = "auth.user"

// SetUser stores the authenticated user on both the gin and the request context.
func SetUser(c *gin.Context, u *UserContext) {
	c.Set(ginUserKey, u)
	c.Request = c.Request.WithContext(WithUser(c.Request.Context(), u))
}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// GetUser returns the user attached by the auth middleware, or nil.
func GetUser(c *gin.Context) *UserContext {
	if v, ok := c.Get(ginUserKey); ok {
		if u, ok := v.(*UserContext); ok {
			return u
		}
	}
	return FromContext(c.Request.Context())
}

func FromContext(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(ctxKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetUserID returns "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	if u := GetUser(c); u != nil {
		return u.UserID
	}
	return ""
}
