package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/task"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, type, payload, status,
	attempts, max_attempts,
	run_at, locked_at, locked_by,
	last_error, idempotency_key, created_at, updated_at`

// TasksRepo is the outbox the API writes to and the worker drains.
type TasksRepo struct {
	base
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{base{pool: pool, prom: prom}}
}

func (r *TasksRepo) Create(ctx context.Context, req task.CreateRequest) (task.Task, error) {
	return r.create(ctx, r.pool, "tasks.create", req)
}

// CreateTx enqueues inside the caller's transaction. A repeated idempotency
// key is silently ignored.
func (r *TasksRepo) CreateTx(ctx context.Context, tx pgx.Tx, req task.CreateRequest) (task.Task, error) {
	return r.create(ctx, tx, "tasks.create_tx", req)
}

func (r *TasksRepo) create(ctx context.Context, q querier, op string, req task.CreateRequest) (task.Task, error) {
	t := task.New(req)

	err := r.observe(op, func() error {
		_, err := q.Exec(ctx, `
		INSERT INTO tasks (
			id, type, payload, status, attempts, max_attempts, run_at,
			idempotency_key, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
	`, t.ID, t.Type, t.Payload, string(t.Status), t.Attempts, t.MaxAttempts, t.RunAt,
			t.IdempotencyKey, t.CreatedAt, t.UpdatedAt)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

// ClaimNext locks the oldest ready task for workerID. Concurrent workers never
// claim the same row.
func (r *TasksRepo) ClaimNext(ctx context.Context, workerID string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.claim_next", func() error {
		return scanTask(r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id
			FROM tasks
			WHERE status = 'pending'
			  AND run_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE tasks
		SET status = 'processing',
		    locked_at = NOW(),
		    locked_by = $1,
		    updated_at = NOW()
		WHERE id = (SELECT id FROM next)
		RETURNING `+taskColumns, workerID), &t)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNoneAvailable
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) MarkDone(ctx context.Context, id string) error {
	return r.update(ctx, "tasks.mark_done", `
		UPDATE tasks
		SET status = 'done',
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id)
}

func (r *TasksRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.update(ctx, "tasks.mark_failed", `
		UPDATE tasks
		SET status = 'failed',
		    attempts = attempts + 1,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, errMsg)
}

// Reschedule puts a failed attempt back in the queue at runAt.
func (r *TasksRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(ctx, "tasks.reschedule", `
		UPDATE tasks
		SET status = 'pending',
		    attempts = attempts + 1,
		    run_at = $2,
		    locked_at = NULL,
		    locked_by = NULL,
		    last_error = $3,
		    updated_at = NOW()
		WHERE id = $1
	`, id, runAt, errMsg)
}

func (r *TasksRepo) update(ctx context.Context, op, sql string, args ...any) error {
	var tag pgconn.CommandTag

	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// RequeueStaleProcessing releases tasks whose lock is older than lockTTL,
// which happens when a worker dies mid-task.
func (r *TasksRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}

	var rows int64

	err := r.observe("tasks.requeue_stale", func() error {
		tag, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET status = 'pending',
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND locked_at IS NOT NULL
		  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
	`, secs)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})

	return rows, err
}

func (r *TasksRepo) GetByIdempotencyKey(ctx context.Context, key string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_idempotency_key", func() error {
		return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE idempotency_key = $1`, key), &t)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, ErrTaskNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func scanTask(row pgx.Row, t *task.Task) error {
	var status string

	err := row.Scan(
		&t.ID, &t.Type, &t.Payload, &status,
		&t.Attempts, &t.MaxAttempts,
		&t.RunAt, &t.LockedAt, &t.LockedBy,
		&t.LastError, &t.IdempotencyKey, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return err
	}

	t.Status = task.Status(status)
	return nil
}
