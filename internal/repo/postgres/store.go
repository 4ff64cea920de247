package postgres

import (
	"context"

	"github.com/geocoder89/quickhire/internal/marketplace"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repos the marketplace service needs.
type Store struct {
	*UsersRepo
	*JobsRepo
	*SkillsRepo
	*ApplicationsRepo

	Tasks *TasksRepo
	pool  *pgxpool.Pool
}

var _ marketplace.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	tasks := NewTasksRepo(pool, prom)

	return &Store{
		UsersRepo:        NewUsersRepo(pool, prom),
		JobsRepo:         NewJobsRepo(pool, prom, tasks),
		SkillsRepo:       NewSkillsRepo(pool, prom),
		ApplicationsRepo: NewApplicationsRepo(pool, prom, tasks),
		Tasks:            tasks,
		pool:             pool,
	}
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
