package notifications

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) ApplicationSubmitted(ctx context.Context, _ ApplicationSubmitted) error {
	s.calls++
	return s.err
}

func (s *stubNotifier) JobStatusChanged(ctx context.Context, _ JobStatusChanged) error {
	s.calls++
	return s.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &stubNotifier{err: errors.New("boom")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := n.JobStatusChanged(ctx, JobStatusChanged{}); err == nil {
			t.Fatalf("call %d: expected inner error", i)
		}
	}

	if got := n.State(); got != stateOpen {
		t.Fatalf("expected open, got %s", got)
	}

	if err := n.ApplicationSubmitted(ctx, ApplicationSubmitted{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not reach inner notifier, calls=%d", inner.calls)
	}

	// after cooldown one trial call goes through and closes the circuit
	now = now.Add(time.Minute)
	inner.err = nil

	if err := n.ApplicationSubmitted(ctx, ApplicationSubmitted{}); err != nil {
		t.Fatalf("trial call: %v", err)
	}
	if got := n.State(); got != stateClosed {
		t.Fatalf("expected closed after successful trial, got %s", got)
	}
}

func TestProtectedNotifier_FailedTrialReopens(t *testing.T) {
	inner := &stubNotifier{err: errors.New("boom")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second})

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	_ = n.JobStatusChanged(context.Background(), JobStatusChanged{})
	now = now.Add(2 * time.Second)
	_ = n.JobStatusChanged(context.Background(), JobStatusChanged{})

	if got := n.State(); got != stateOpen {
		t.Fatalf("expected open after failed trial, got %s", got)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	n := NewLogNotifier(log)
	err := n.ApplicationSubmitted(context.Background(), ApplicationSubmitted{
		Employer: Recipient{Email: "e1@example.com"},
		JobID:    "job-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "notification.application_submitted") || !strings.Contains(buf.String(), "e1@example.com") {
		t.Fatalf("unexpected log output: %s", buf.String())
	}

	failing := NewLogNotifier(log, WithFailure(true))
	if err := failing.JobStatusChanged(context.Background(), JobStatusChanged{}); err == nil {
		t.Fatalf("expected simulated failure")
	}
}
