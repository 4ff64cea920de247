package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/quickhire/internal/actorctx"
	"github.com/geocoder89/quickhire/internal/auth"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Missing access token")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid_token", "Invalid or expired token")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, user.Role(claims.Role))

		ctx := actorctx.With(c.Request.Context(), actorctx.Actor{UserID: claims.UserID, Role: claims.Role})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok && role != ""
}
