package middlewares

import (
	"net/http"

	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth. Roles compare case-insensitively.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Missing identity context")
			return
		}

		if !required.Is(string(role)) {
			abort(c, http.StatusForbidden, "forbidden", "This action requires the "+string(required)+" role")
			return
		}
		c.Next()
	}
}
