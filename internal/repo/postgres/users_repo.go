package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, last_login_at, created_at, updated_at`

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

func (r *UsersRepo) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
		return err
	})

	if err != nil {
		if isConstraint(err, "users_email_uniq") {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, user.NormalizeEmail(email))
}

func (r *UsersRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	var tag pgconn.CommandTag

	err := r.observe("users.touch_last_login", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, at.UTC())
		return err
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, sql string, arg string) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return scanUser(r.pool.QueryRow(ctx, sql, arg), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row, u *user.User) error {
	var role string

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}

	u.Role = user.Role(role)
	return nil
}
