package marketplace

import (
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/quickhire/internal/validation"
)

type Kind string

const (
	KindValidation           Kind = "validation"
	KindUnauthenticated      Kind = "unauthenticated"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindInvalidToken         Kind = "invalid_token"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindJobNotAvailable      Kind = "job_not_available"
	KindDuplicateApplication Kind = "duplicate_application"
	KindRateLimited          Kind = "rate_limited"
	KindInvalidTransition    Kind = "invalid_transition"
	KindConflict             Kind = "conflict"
	KindInternal             Kind = "internal"
)

// Error is what every Service method returns on failure.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []validation.FieldError
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the taxonomy kind of err; anything unclassified is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func validationError(fields []validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid request", Fields: fields}
}

func fieldError(field, rule, param string) *Error {
	return validationError([]validation.FieldError{{
		Field:   field,
		Rule:    rule,
		Param:   param,
		Message: validation.Message(rule, param),
	}})
}

func notFound(what string) *Error {
	return newError(KindNotFound, what+" not found")
}

func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "Could not " + op, Err: err}
}

func rateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    "Application limit reached. Please try again later.",
		RetryAfter: retryAfter,
	}
}
