package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/observability"
	"github.com/geocoder89/quickhire/internal/tasks"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// jobSelect reads a job with its skills, employer name and application count.
const jobSelect = `
	SELECT j.id, j.employer_id, u.name, j.title, j.description, j.budget,
	       j.status, j.deleted_at, j.created_at, j.updated_at,
	       COALESCE((
	           SELECT json_agg(json_build_object('id', s.id, 'name', s.name) ORDER BY lower(s.name))
	           FROM job_skills js
	           JOIN skills s ON s.id = js.skill_id
	           WHERE js.job_id = j.id
	       ), '[]'::json) AS skills,
	       (SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id) AS application_count
	FROM jobs j
	JOIN users u ON u.id = j.employer_id`

type JobsRepo struct {
	base
	tasks *TasksRepo
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom, tasks *TasksRepo) *JobsRepo {
	return &JobsRepo{base: base{pool: pool, prom: prom}, tasks: tasks}
}

func (r *JobsRepo) CreateJob(ctx context.Context, j job.Job, refs skill.Refs) (job.Job, error) {
	var out job.Job

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		ids, err := resolveSkillRefs(ctx, r.base, tx, refs)
		if err != nil {
			return err
		}

		err = r.observe("jobs.create.insert", func() error {
			_, e := tx.Exec(ctx, `
			INSERT INTO jobs (id, employer_id, title, description, budget, status, deleted_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, j.ID, j.EmployerID, j.Title, j.Description, j.Budget, string(j.Status), j.DeletedAt, j.CreatedAt, j.UpdatedAt)
			return e
		})
		if err != nil {
			return err
		}

		if err := replaceJobSkills(ctx, r.base, tx, j.ID, ids); err != nil {
			return err
		}

		out, err = r.load(ctx, tx, "jobs.create.load", j.ID, true)
		return err
	})
	if err != nil {
		return job.Job{}, err
	}

	return out, nil
}

func (r *JobsRepo) MutateJob(ctx context.Context, id, employerID string, refs *skill.Refs, mutate func(j *job.Job) error) (job.Job, error) {
	var out job.Job

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := r.observe("jobs.mutate.lock", func() error {
			var locked string
			return tx.QueryRow(ctx, `
			SELECT id FROM jobs
			WHERE id = $1 AND employer_id = $2
			FOR UPDATE
		`, id, employerID).Scan(&locked)
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return job.ErrNotFound
			}
			return err
		}

		current, err := r.load(ctx, tx, "jobs.mutate.load", id, true)
		if err != nil {
			return err
		}

		draft := current
		if err := mutate(&draft); err != nil {
			return err
		}

		err = r.observe("jobs.mutate.update", func() error {
			_, e := tx.Exec(ctx, `
			UPDATE jobs
			SET title = $2,
			    description = $3,
			    budget = $4,
			    status = $5,
			    deleted_at = $6,
			    updated_at = $7
			WHERE id = $1
		`, id, draft.Title, draft.Description, draft.Budget, string(draft.Status), draft.DeletedAt, draft.UpdatedAt)
			return e
		})
		if err != nil {
			return err
		}

		if refs != nil {
			ids, err := resolveSkillRefs(ctx, r.base, tx, *refs)
			if err != nil {
				return err
			}
			if err := replaceJobSkills(ctx, r.base, tx, id, ids); err != nil {
				return err
			}
		}

		if draft.Status != current.Status && r.tasks != nil {
			req, err := tasks.NewRequest(tasks.TypeJobStatusChanged,
				fmt.Sprintf("%s:%s:%d", id, draft.Status, draft.UpdatedAt.UnixNano()),
				tasks.JobStatusChangedPayload{
					JobID:      id,
					EmployerID: employerID,
					From:       string(current.Status),
					To:         string(draft.Status),
				})
			if err != nil {
				return err
			}
			if _, err := r.tasks.CreateTx(ctx, tx, req); err != nil {
				return err
			}
		}

		out, err = r.load(ctx, tx, "jobs.mutate.reload", id, true)
		return err
	})
	if err != nil {
		return job.Job{}, err
	}

	return out, nil
}

func (r *JobsRepo) GetJob(ctx context.Context, id string) (job.Job, error) {
	return r.load(ctx, r.pool, "jobs.get", id, false)
}

func (r *JobsRepo) ListJobs(ctx context.Context, f job.Filter) ([]job.Job, int, error) {
	f = f.Normalize()

	conds := []string{"j.deleted_at IS NULL"}
	args := []any{}
	argsPos := 1

	conds = append(conds, fmt.Sprintf("j.status = $%d", argsPos))
	args = append(args, string(f.Status))
	argsPos++

	if search := strings.TrimSpace(f.Search); search != "" {
		conds = append(conds, fmt.Sprintf("(j.title ILIKE $%d ESCAPE '\\' OR j.description ILIKE $%d ESCAPE '\\')", argsPos, argsPos))
		args = append(args, "%"+escapeLike(search)+"%")
		argsPos++
	}

	if ids := skill.Dedupe(f.SkillIDs); len(ids) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM job_skills fs WHERE fs.job_id = j.id AND fs.skill_id::text = ANY($%d))", argsPos))
		args = append(args, ids)
		argsPos++
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	// Counted separately: a window count over an empty page would report 0.
	var total int
	err := r.observe("jobs.list.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs j`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	if total == 0 || f.Offset() >= total {
		return []job.Job{}, total, nil
	}

	query := jobSelect + where +
		fmt.Sprintf(" ORDER BY j.created_at DESC, j.id DESC LIMIT $%d OFFSET $%d", argsPos, argsPos+1)
	args = append(args, f.Limit, f.Offset())

	items, err := r.queryJobs(ctx, "jobs.list", query, args...)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *JobsRepo) ListJobsByEmployer(ctx context.Context, employerID string) ([]job.Job, error) {
	return r.queryJobs(ctx, "jobs.list_by_employer",
		jobSelect+` WHERE j.employer_id = $1 AND j.deleted_at IS NULL ORDER BY j.created_at DESC, j.id DESC`,
		employerID)
}

// load reads one job. Soft-deleted rows are only returned when withDeleted is
// set, which the owner-side mutation path needs.
func (r *JobsRepo) load(ctx context.Context, q querier, op, id string, withDeleted bool) (job.Job, error) {
	sql := jobSelect + ` WHERE j.id = $1`
	if !withDeleted {
		sql += ` AND j.deleted_at IS NULL`
	}

	var j job.Job

	err := r.observe(op, func() error {
		return scanJob(q.QueryRow(ctx, sql, id), &j)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobsRepo) queryJobs(ctx context.Context, op, sql string, args ...any) ([]job.Job, error) {
	var rows pgx.Rows

	err := r.observe(op, func() error {
		var err error
		rows, err = r.pool.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.Job, 0)
	for rows.Next() {
		var j job.Job
		if err := scanJob(rows, &j); err != nil {
			return nil, err
		}
		out = append(out, j)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanJob(row pgx.Row, j *job.Job) error {
	var (
		status string
		skills []byte
	)

	err := row.Scan(
		&j.ID, &j.EmployerID, &j.EmployerName, &j.Title, &j.Description, &j.Budget,
		&status, &j.DeletedAt, &j.CreatedAt, &j.UpdatedAt,
		&skills, &j.ApplicationCount,
	)
	if err != nil {
		return err
	}

	j.Status = job.Status(status)
	j.Skills = make([]skill.Skill, 0)
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &j.Skills); err != nil {
			return fmt.Errorf("decode job skills: %w", err)
		}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
