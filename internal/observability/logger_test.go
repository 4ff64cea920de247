package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/geocoder89/quickhire/internal/actorctx"
)

func TestLogger_AddsActorID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	ctx := actorctx.With(context.Background(), actorctx.Actor{UserID: "u-42", Role: "freelancer"})
	log.InfoContext(ctx, "application_submitted", "job_id", "j-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if line["actor_id"] != "u-42" {
		t.Fatalf("actor_id: got %v", line["actor_id"])
	}
	if _, ok := line["trace_id"]; ok {
		t.Fatalf("no span on context, trace_id must be absent")
	}
}

func TestLogger_NoActor(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.DebugContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be filtered outside dev")
	}

	log.InfoContext(context.Background(), "visible")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if _, ok := line["actor_id"]; ok {
		t.Fatalf("anonymous context must not carry actor_id")
	}
}

func TestLogger_AddsActorRole(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	ctx := actorctx.With(context.Background(), actorctx.Actor{UserID: "u-7", Role: "employer"})
	log.InfoContext(ctx, "job_archived")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["actor_role"] != "employer" {
		t.Fatalf("actor_role: got %v", line["actor_role"])
	}
}
