package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/geocoder89/quickhire/internal/validation"
	"github.com/gin-gonic/gin"
)

type FieldError = validation.FieldError

// BindJSON decodes the body into out. It only reports malformed JSON; field
// rules are enforced by the service so every violation is reported at once.
// An empty body is left for that validation to reject.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large", nil)
			return false
		}
		RespondBadRequest(ctx, "Invalid request body", gin.H{"reason": err.Error()})
		return false
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return true
	}

	if err := json.Unmarshal(raw, out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err, raw, out))
		return false
	}
	return true
}

func parseBindError(err error, raw []byte, out interface{}) interface{} {
	// in the event of bad json
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// in the event of a type mismatch; every mismatched field is listed
	var unmatchedTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmatchedTypeError) {
		field := validation.JSONPath(out, unmatchedTypeError.Field)
		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		fields := validation.TypeErrors(raw, out)
		if len(fields) == 0 {
			fields = []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			}
		}

		return gin.H{
			"json":   "invalid_json_type",
			"field":  field,
			"fields": fields,
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}
