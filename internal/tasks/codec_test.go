package tasks

import (
	"errors"
	"testing"

	"github.com/geocoder89/quickhire/internal/domain/task"
)

func TestNewRequestAndDecode_ApplicationSubmitted(t *testing.T) {
	payload := ApplicationSubmittedPayload{
		ApplicationID: "app-1",
		JobID:         "job-1",
		FreelancerID:  "f-1",
		EmployerID:    "e-1",
	}

	req, err := NewRequest(TypeApplicationSubmitted, payload.ApplicationID, payload)
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}
	if req.IdempotencyKey == nil || *req.IdempotencyKey != "application_submitted:app-1" {
		t.Fatalf("unexpected idempotency key: %v", req.IdempotencyKey)
	}

	decoded, err := Decode(task.New(req))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	p, ok := decoded.(ApplicationSubmittedPayload)
	if !ok {
		t.Fatalf("expected ApplicationSubmittedPayload, got %T", decoded)
	}
	if p != payload {
		t.Fatalf("round trip mismatch: %+v", p)
	}
}

func TestEncode_TypeMismatch(t *testing.T) {
	_, err := Encode(TypeApplicationSubmitted, JobStatusChangedPayload{JobID: "j1", To: "closed"})
	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want error
	}{
		{name: "unknown type", task: task.Task{Type: "send_email", Payload: []byte(`{}`)}, want: ErrInvalidType},
		{name: "empty payload", task: task.Task{Type: string(TypeJobStatusChanged)}, want: ErrInvalidPayload},
		{name: "bad json", task: task.Task{Type: string(TypeJobStatusChanged), Payload: []byte(`{`)}, want: ErrInvalidPayload},
		{name: "missing ids", task: task.Task{Type: string(TypeJobStatusChanged), Payload: []byte(`{"from":"open"}`)}, want: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.task); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
