package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/quickhire/internal/actorctx"
	"github.com/geocoder89/quickhire/internal/auth"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeVerifier struct {
	claims map[string]*auth.Claims
}

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	c, ok := f.claims[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return c, nil
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(fakeVerifier{claims: map[string]*auth.Claims{
		"employer-token":   {UserID: "e1", Role: "employer"},
		"freelancer-token": {UserID: "f1", Role: "FREELANCER"},
	}})

	r := gin.New()
	r.Use(RequestID())
	r.GET("/employer", m.RequireAuth(), m.RequireRole(user.RoleEmployer), func(c *gin.Context) {
		a, _ := actorctx.From(c.Request.Context())
		c.String(http.StatusOK, a.UserID)
	})
	r.GET("/freelancer", m.RequireAuth(), m.RequireRole(user.RoleFreelancer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAuthAndRole(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "missing header", path: "/employer", wantCode: http.StatusUnauthorized, wantErr: "unauthenticated"},
		{name: "bad token", path: "/employer", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
		{name: "wrong role", path: "/employer", header: "Bearer freelancer-token", wantCode: http.StatusForbidden, wantErr: "forbidden"},
		{name: "employer ok", path: "/employer", header: "Bearer employer-token", wantCode: http.StatusOK},
		{name: "role case-insensitive", path: "/freelancer", header: "Bearer freelancer-token", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" && !strings.Contains(w.Body.String(), `"code":"`+tt.wantErr+`"`) {
				t.Fatalf("expected code %q, body=%s", tt.wantErr, w.Body.String())
			}
			if tt.wantErr != "" && !strings.Contains(w.Body.String(), `"requestId":"`) {
				t.Fatalf("error envelope must carry requestId, body=%s", w.Body.String())
			}
		})
	}
}

func TestRateLimiter_BurstThenRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(2)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After: got %q, want 30", got)
	}

	// a token refills after 30s
	now = now.Add(30 * time.Second)
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("after refill: got %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"0123456789"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}
