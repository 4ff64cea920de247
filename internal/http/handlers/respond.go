package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// kindStatus maps each error kind to its HTTP status and wire code.
var kindStatus = map[marketplace.Kind]struct {
	status int
	code   string
}{
	marketplace.KindValidation:           {http.StatusBadRequest, "invalid_request"},
	marketplace.KindUnauthenticated:      {http.StatusUnauthorized, "unauthenticated"},
	marketplace.KindInvalidCredentials:   {http.StatusUnauthorized, "invalid_credentials"},
	marketplace.KindInvalidToken:         {http.StatusUnauthorized, "invalid_token"},
	marketplace.KindForbidden:            {http.StatusForbidden, "forbidden"},
	marketplace.KindNotFound:             {http.StatusNotFound, "not_found"},
	marketplace.KindJobNotAvailable:      {http.StatusNotFound, "job_not_available"},
	marketplace.KindDuplicateApplication: {http.StatusConflict, "duplicate_application"},
	marketplace.KindInvalidTransition:    {http.StatusConflict, "invalid_transition"},
	marketplace.KindConflict:             {http.StatusConflict, "email_taken"},
	marketplace.KindRateLimited:          {http.StatusTooManyRequests, "rate_limited"},
}

// RespondServiceError turns a service error into the error envelope. Internal
// errors are logged here and reach the client only as an opaque message.
func RespondServiceError(ctx *gin.Context, log *slog.Logger, err error) {
	e, ok := marketplace.AsError(err)
	if !ok || e.Kind == marketplace.KindInternal {
		if log == nil {
			log = slog.Default()
		}
		log.ErrorContext(ctx.Request.Context(), "request_failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, "Something went wrong")
		return
	}

	m, ok := kindStatus[e.Kind]
	if !ok {
		RespondInternal(ctx, "Something went wrong")
		return
	}

	var details interface{}
	if len(e.Fields) > 0 {
		details = gin.H{"fields": e.Fields}
	}

	if e.Kind == marketplace.KindRateLimited && e.RetryAfter > 0 {
		secs := int(math.Ceil(e.RetryAfter.Seconds()))
		ctx.Header("Retry-After", strconv.Itoa(secs))
		details = gin.H{"retryAfterSeconds": secs}
	}

	RespondError(ctx, m.status, m.code, e.Message, details)
}
