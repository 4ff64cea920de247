// Package marketplace holds the rules of the job board: who may post, edit,
// archive and apply, in which order application preconditions are checked,
// and how store failures map onto the error taxonomy. HTTP handlers and the
// CLI entry points only translate in and out of it.
package marketplace

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/quickhire/internal/cache"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/geocoder89/quickhire/internal/ratelimit"
)

const defaultTimeout = 3 * time.Second

type TokenIssuer interface {
	Issue(u user.User) (token string, expiresAt time.Time, err error)
}

// Actor is the authenticated caller as established by the token.
type Actor struct {
	UserID string
	Role   user.Role
}

type Service struct {
	users  UserStore
	jobs   JobStore
	skills SkillStore
	apps   ApplicationStore

	limiter    ratelimit.Limiter
	tokens     TokenIssuer
	skillCache *cache.Cache

	prom    *observability.Prom
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(p *observability.Prom) Option {
	return func(s *Service) { s.prom = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithTimeout bounds every store call made by one operation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSkillCache(c *cache.Cache) Option {
	return func(s *Service) { s.skillCache = c }
}

func New(store Store, limiter ratelimit.Limiter, tokens TokenIssuer, opts ...Option) *Service {
	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(10, time.Hour)
	}

	s := &Service{
		users:      store,
		jobs:       store,
		skills:     store,
		apps:       store,
		limiter:    limiter,
		tokens:     tokens,
		skillCache: cache.New(30 * time.Second),
		log:        slog.Default(),
		now:        time.Now,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func requireRole(a Actor, role user.Role) error {
	if a.UserID == "" {
		return newError(KindUnauthenticated, "Authentication required")
	}
	if a.Role != role {
		return newError(KindForbidden, "This action requires the "+string(role)+" role")
	}
	return nil
}
