package job

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusOpen, StatusClosed, true},
		{StatusClosed, StatusOpen, true},
		{StatusOpen, StatusArchived, true},
		{StatusClosed, StatusArchived, true},
		{StatusArchived, StatusOpen, false},
		{StatusArchived, StatusClosed, false},
		{StatusArchived, StatusArchived, false},
		{StatusOpen, StatusOpen, false},
	}

	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestTransition_ArchiveSetsSoftDelete(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := NewFromCreateRequest(CreateRequest{EmployerID: "e1", Title: "Backend Engineer for X", Budget: 500}, now)

	if err := j.Transition(StatusClosed, now); err != nil {
		t.Fatalf("close: %v", err)
	}
	if j.DeletedAt != nil {
		t.Fatalf("closing must not soft-delete")
	}

	later := now.Add(time.Hour)
	if err := j.Transition(StatusArchived, later); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if j.DeletedAt == nil || !j.DeletedAt.Equal(later) {
		t.Fatalf("expected deletedAt=%v, got %v", later, j.DeletedAt)
	}
	if j.Visible() {
		t.Fatalf("archived job must not be visible")
	}

	if err := j.Transition(StatusArchived, later); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second archive: expected ErrInvalidTransition, got %v", err)
	}
	if j.Status != StatusArchived {
		t.Fatalf("status changed after rejected transition: %s", j.Status)
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" CLOSED ")
	if err != nil || got != StatusClosed {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseStatus("draft"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestPaginate(t *testing.T) {
	p := Paginate(6, 3, 6)
	if p.Pages != 1 {
		t.Fatalf("pages: got %d, want 1", p.Pages)
	}

	f := Filter{Page: 3, Limit: 6}.Normalize()
	if f.Offset() != 12 {
		t.Fatalf("offset: got %d, want 12", f.Offset())
	}

	if Paginate(0, 1, 6).Pages != 0 {
		t.Fatalf("empty result must have 0 pages")
	}
	if Paginate(13, 1, 6).Pages != 3 {
		t.Fatalf("13 items at 6 per page must be 3 pages")
	}
}

func TestFilterOffsetSaturates(t *testing.T) {
	f := Filter{Page: math.MaxInt, Limit: 6}.Normalize()
	if got := f.Offset(); got != math.MaxInt {
		t.Fatalf("offset: got %d, want math.MaxInt", got)
	}

	f = Filter{Page: math.MaxInt/MaxPageLimit + 1, Limit: MaxPageLimit}.Normalize()
	if got := f.Offset(); got != math.MaxInt/MaxPageLimit*MaxPageLimit {
		t.Fatalf("offset at the edge: got %d", got)
	}

	if got := (Filter{Page: 1, Limit: 6}).Offset(); got != 0 {
		t.Fatalf("first page offset: got %d", got)
	}
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{}.Normalize()
	if f.Status != StatusOpen || f.Page != 1 || f.Limit != DefaultPageLimit {
		t.Fatalf("unexpected defaults: %+v", f)
	}

	f = Filter{Limit: 1000}.Normalize()
	if f.Limit != MaxPageLimit {
		t.Fatalf("limit should be capped, got %d", f.Limit)
	}
}
