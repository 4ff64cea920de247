package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/quickhire/internal/http/handlers"
	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func newBindRouter(maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/jobs", func(ctx *gin.Context) {
		if maxBody > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBody)
		}
		var req marketplace.CreateJobInput
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"title": req.Title})
	})
	return r
}

func postJobs(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := newBindRouter(0)

	w := postJobs(r, `{"title":"Backend Engineer","budget":"ten"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}
	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "budget" {
		t.Fatalf("expected detail field to be budget, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}

	fieldErr := resp.Error.Details.Fields[0]
	if fieldErr.Field != "budget" || fieldErr.Rule != "type" {
		t.Fatalf("unexpected field error: %+v", fieldErr)
	}
	if fieldErr.Message == "" {
		t.Fatalf("expected non-empty fields[0].message")
	}
}

func TestBindJSON_TypeMismatchListsEveryField(t *testing.T) {
	r := newBindRouter(0)

	w := postJobs(r, `{"title":7,"description":"A long enough description here.","budget":"ten","skills":"go"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	got := map[string]string{}
	for _, fe := range resp.Error.Details.Fields {
		got[fe.Field] = fe.Rule
	}
	want := map[string]string{"title": "type", "budget": "type", "skills": "type"}
	if len(got) != len(want) {
		t.Fatalf("fields = %+v, want %v", resp.Error.Details.Fields, want)
	}
	for field, rule := range want {
		if got[field] != rule {
			t.Fatalf("field %q: rule %q, want %q (all: %+v)", field, got[field], rule, resp.Error.Details.Fields)
		}
	}
}

func TestBindJSON_MalformedJSON(t *testing.T) {
	r := newBindRouter(0)

	for _, body := range []string{`{"title":`, `{"title" "x"}`, `not json`} {
		w := postJobs(r, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got status %d, want 400", body, w.Code)
		}

		var resp bindErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Error.Details.JSON != "invalid_json_syntax" {
			t.Fatalf("body %q: expected invalid_json_syntax, got %q", body, resp.Error.Details.JSON)
		}
	}
}

func TestBindJSON_EmptyBodyIsLeftToValidation(t *testing.T) {
	r := newBindRouter(0)

	w := postJobs(r, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}
}

func TestBindJSON_TooLarge(t *testing.T) {
	r := newBindRouter(32)

	w := postJobs(r, `{"title":"`+strings.Repeat("a", 128)+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d, want 413, body=%s", w.Code, w.Body.String())
	}
}
