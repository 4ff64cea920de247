package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/geocoder89/quickhire/internal/tasks"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationSelect = `
	SELECT a.id, a.job_id, a.freelancer_id, f.name, f.email, a.message, a.created_at
	FROM applications a
	JOIN users f ON f.id = a.freelancer_id`

// applicationWithJobSelect adds the job summary shown to freelancers.
const applicationWithJobSelect = `
	SELECT a.id, a.job_id, a.freelancer_id, f.name, f.email, a.message, a.created_at,
	       j.id, j.title, j.status, j.created_at, j.employer_id, e.name
	FROM applications a
	JOIN users f ON f.id = a.freelancer_id
	JOIN jobs j ON j.id = a.job_id
	JOIN users e ON e.id = j.employer_id`

type ApplicationsRepo struct {
	base
	tasks *TasksRepo
}

func NewApplicationsRepo(pool *pgxpool.Pool, prom *observability.Prom, tasks *TasksRepo) *ApplicationsRepo {
	return &ApplicationsRepo{base: base{pool: pool, prom: prom}, tasks: tasks}
}

func (r *ApplicationsRepo) CreateApplication(ctx context.Context, app application.Application, admit func(ctx context.Context) error) (application.Application, error) {
	var out application.Application

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// 1) job must be visible and open; the share lock holds it there
		var (
			status     string
			employerID string
			deleted    bool
		)
		err := r.observe("applications.create_tx.job_lock", func() error {
			return tx.QueryRow(ctx, `
			SELECT status, employer_id, deleted_at IS NOT NULL
			FROM jobs
			WHERE id = $1
			FOR SHARE
		`, app.JobID).Scan(&status, &employerID, &deleted)
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return application.ErrJobNotOpen
			}
			return err
		}
		if deleted || job.Status(status) != job.StatusOpen {
			return application.ErrJobNotOpen
		}

		// 2) duplicate pre-check; the unique constraint below is authoritative.
		// The pair lock serializes concurrent submissions of the same pair so
		// the loser sees the winner's row here and never reaches the limiter.
		err = r.observe("applications.create_tx.pair_lock", func() error {
			_, e := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
				app.JobID, app.FreelancerID)
			return e
		})
		if err != nil {
			return err
		}

		var exists bool
		err = r.observe("applications.create_tx.duplicate_check", func() error {
			return tx.QueryRow(ctx, `SELECT EXISTS(
				SELECT 1 FROM applications
				WHERE job_id = $1 AND freelancer_id = $2
			)`, app.JobID, app.FreelancerID).Scan(&exists)
		})
		if err != nil {
			return err
		}
		if exists {
			return application.ErrDuplicate
		}

		// 3) rate limit
		if err := admit(ctx); err != nil {
			return err
		}

		err = r.observe("applications.create_tx.insert", func() error {
			_, e := tx.Exec(ctx, `
			INSERT INTO applications (id, job_id, freelancer_id, message, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, app.ID, app.JobID, app.FreelancerID, app.Message, app.CreatedAt)
			return e
		})
		if err != nil {
			if isConstraint(err, "applications_job_freelancer_uniq") {
				return application.ErrDuplicate
			}
			return err
		}

		if r.tasks != nil {
			req, err := tasks.NewRequest(tasks.TypeApplicationSubmitted, app.ID, tasks.ApplicationSubmittedPayload{
				ApplicationID: app.ID,
				JobID:         app.JobID,
				FreelancerID:  app.FreelancerID,
				EmployerID:    employerID,
			})
			if err != nil {
				return err
			}
			if _, err := r.tasks.CreateTx(ctx, tx, req); err != nil {
				return err
			}
		}

		return r.observe("applications.create_tx.load", func() error {
			return scanApplicationWithJob(tx.QueryRow(ctx, applicationWithJobSelect+` WHERE a.id = $1`, app.ID), &out)
		})
	})
	if err != nil {
		return application.Application{}, err
	}

	return out, nil
}

func (r *ApplicationsRepo) ListApplicationsForJob(ctx context.Context, jobID, employerID string) ([]application.Application, error) {
	var owned bool

	err := r.observe("applications.list_for_job.owner_check", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM jobs
			WHERE id = $1 AND employer_id = $2 AND deleted_at IS NULL
		)`, jobID, employerID).Scan(&owned)
	})
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, job.ErrNotFound
	}

	var rows pgx.Rows

	err = r.observe("applications.list_for_job", func() error {
		var e error
		rows, e = r.pool.Query(ctx, applicationSelect+`
		WHERE a.job_id = $1
		ORDER BY a.created_at DESC, a.id DESC
	`, jobID)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		var a application.Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *ApplicationsRepo) ListApplicationsByFreelancer(ctx context.Context, freelancerID string) ([]application.Application, error) {
	var rows pgx.Rows

	err := r.observe("applications.list_by_freelancer", func() error {
		var e error
		rows, e = r.pool.Query(ctx, applicationWithJobSelect+`
		WHERE a.freelancer_id = $1
		ORDER BY a.created_at DESC, a.id DESC
	`, freelancerID)
		return e
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]application.Application, 0)
	for rows.Next() {
		var a application.Application
		if err := scanApplicationWithJob(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func scanApplication(row pgx.Row, a *application.Application) error {
	return row.Scan(&a.ID, &a.JobID, &a.FreelancerID, &a.FreelancerName, &a.FreelancerEmail, &a.Message, &a.CreatedAt)
}

func scanApplicationWithJob(row pgx.Row, a *application.Application) error {
	var sum application.JobSummary
	err := row.Scan(
		&a.ID, &a.JobID, &a.FreelancerID, &a.FreelancerName, &a.FreelancerEmail, &a.Message, &a.CreatedAt,
		&sum.ID, &sum.Title, &sum.Status, &sum.CreatedAt, &sum.EmployerID, &sum.EmployerName,
	)
	if err != nil {
		return err
	}
	a.Job = &sum
	return nil
}
