package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies on mutating methods unless they are declared as
// JSON. Body-less requests (DELETE, empty POST) pass.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			// allow "application/json; charset=utf-8"
			if !strings.HasPrefix(ct, "application/json") {
				abort(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
