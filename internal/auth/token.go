package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SupabaseClaims is the payload of a Supabase session access token.
type SupabaseClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// AppRole returns the role from app_metadata, which only the server can
// write. user_metadata is editable by the user and never grants a role.
func (c *SupabaseClaims) AppRole() string {
	if r, ok := c.AppMetadata["role"].(string); ok && r != "" {
		return r
	}
	return ""
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (*UserContext, error) {
	var claims SupabaseClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return &UserContext{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.AppRole(),
	}, nil
}

// RoleLookup resolves a user's role from the profiles table when the token
// carries none.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}
