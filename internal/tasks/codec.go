package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/geocoder89/quickhire/internal/domain/task"
)

// Encode validates payload against t and marshals it.
func Encode(t Type, payload any) (json.RawMessage, error) {
	if err := Validate(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return b, nil
}

// NewRequest builds a task.CreateRequest keyed by type and key, so enqueueing
// the same fact twice is a no-op.
func NewRequest(t Type, key string, payload any) (task.CreateRequest, error) {
	raw, err := Encode(t, payload)
	if err != nil {
		return task.CreateRequest{}, err
	}

	idem := string(t) + ":" + key

	return task.CreateRequest{
		Type:           string(t),
		Payload:        raw,
		IdempotencyKey: &idem,
	}, nil
}

// Decode unmarshals a stored task into its typed payload.
func Decode(t task.Task) (any, error) {
	typ := Type(t.Type)
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}
	if len(t.Payload) == 0 {
		return nil, ErrInvalidPayload
	}

	var out any
	switch typ {
	case TypeApplicationSubmitted:
		var p ApplicationSubmittedPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out = p

	case TypeJobStatusChanged:
		var p JobStatusChangedPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		out = p
	}

	if err := Validate(typ, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the payload's Go type and required ids.
func Validate(t Type, payload any) error {
	if !t.IsValid() {
		return ErrInvalidType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case TypeApplicationSubmitted:
		var p ApplicationSubmittedPayload
		switch v := payload.(type) {
		case ApplicationSubmittedPayload:
			p = v
		case *ApplicationSubmittedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.ApplicationID) || blank(p.JobID) || blank(p.FreelancerID) {
			return ErrInvalidPayload
		}

	case TypeJobStatusChanged:
		var p JobStatusChangedPayload
		switch v := payload.(type) {
		case JobStatusChangedPayload:
			p = v
		case *JobStatusChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.JobID) || blank(p.To) {
			return ErrInvalidPayload
		}
	}

	return nil
}
