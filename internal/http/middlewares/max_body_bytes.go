package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBody caps JSON request bodies.
const DefaultMaxBody int64 = 1 << 20

func MaxBodyBytes(max int64) gin.HandlerFunc {
	if max <= 0 {
		max = DefaultMaxBody
	}

	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			abort(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		ctx.Next()
	}
}
