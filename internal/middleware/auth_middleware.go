package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// TokenValidator checks access tokens.
type TokenValidator interface {
	ValidateAndExtractClaims(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// tokenFrom reads the bearer token from the Authorization header, falling
// back to the token query parameter browsers use for websockets.
func tokenFrom(c *gin.Context) string {
	header := strings.Trim(c.GetHeader("Authorization"), "\"' ")
	if header == "" {
		return strings.TrimSpace(c.Query("token"))
	}
	token, err := auth.ExtractBearerToken(header)
	if err != nil {
		return ""
	}
	return token
}

// Authenticate validates the token of a request and returns its actor. The
// token must have been minted for the tenant the request addresses.
func (m *AuthMiddleware) Authenticate(c *gin.Context) (*appauth.Actor, error) {
	raw := tokenFrom(c)
	if raw == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Authentication required")
	}

	claims, err := m.tokens.ValidateAndExtractClaims(raw)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenExpired, "Token has expired")
		}
		return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid token")
	}

	schema := tenancy.Schema(c.Request.Context())
	if claims.Schema != schema {
		return nil, apperrors.ErrTenantMismatch
	}
	return appauth.ActorFromClaims(claims), nil
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := m.Authenticate(c)
		if err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Request = c.Request.WithContext(appauth.WithActor(c.Request.Context(), actor))
		c.Set("userID", actor.UserID)
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// RoleRequired lets through callers holding one of roles.
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := appauth.ActorFrom(c.Request.Context())
		if !ok {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Authentication required"))
			return
		}
		if err := appauth.Require(actor, roles...); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}
