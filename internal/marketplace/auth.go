package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/security"
	"github.com/geocoder89/quickhire/internal/validation"
	"github.com/google/uuid"
)

type AuthResult struct {
	User      user.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.normalize()

	fields := validation.Struct(in)
	role, roleErr := user.ParseRole(in.Role)
	if roleErr != nil && in.Role != "" {
		fields = append(fields, validation.FieldError{
			Field:   "role",
			Rule:    "oneof",
			Param:   "employer freelancer",
			Message: validation.Message("oneof", "employer freelancer"),
		})
	}
	if len(fields) > 0 {
		return AuthResult{}, validationError(fields)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, internal("create user", err)
	}

	now := s.clock()
	u := user.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.users.CreateUser(cctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return AuthResult{}, &Error{Kind: KindConflict, Message: "Email is already registered", Err: err}
		}
		return AuthResult{}, internal("create user", err)
	}

	s.log.InfoContext(ctx, "user_registered", "user_id", created.ID, "role", created.Role)

	return s.issue(created)
}

// Login answers InvalidCredentials for both an unknown email and a wrong
// password.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = user.NormalizeEmail(in.Email)

	if fields := validation.Struct(in); len(fields) > 0 {
		return AuthResult{}, validationError(fields)
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetUserByEmail(cctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, newError(KindInvalidCredentials, "Email or password is incorrect")
		}
		return AuthResult{}, internal("log in", err)
	}

	if err := security.CheckPassword(u.PasswordHash, in.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return AuthResult{}, newError(KindInvalidCredentials, "Email or password is incorrect")
		}
		return AuthResult{}, internal("log in", err)
	}

	now := s.clock()
	if err := s.users.TouchLastLogin(cctx, u.ID, now); err != nil {
		return AuthResult{}, internal("log in", err)
	}
	u.LastLoginAt = &now

	return s.issue(u)
}

func (s *Service) Me(ctx context.Context, actor Actor) (user.User, error) {
	if actor.UserID == "" {
		return user.User{}, newError(KindUnauthenticated, "Authentication required")
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetUserByID(cctx, actor.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, notFound("User")
		}
		return user.User{}, internal("load user", err)
	}
	return u, nil
}

func (s *Service) issue(u user.User) (AuthResult, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return AuthResult{}, internal("issue token", err)
	}
	return AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}
