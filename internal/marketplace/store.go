package marketplace

import (
	"context"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/domain/user"
)

type UserStore interface {
	// CreateUser returns user.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByID(ctx context.Context, id string) (user.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type JobStore interface {
	// CreateJob inserts j and attaches refs in one transaction. Unknown ids
	// yield skill.ErrUnknownSkill; names are upserted.
	CreateJob(ctx context.Context, j job.Job, refs skill.Refs) (job.Job, error)

	// MutateJob locks the job owned by employerID, soft-deleted rows
	// included, and applies mutate. A nil refs keeps the skill set;
	// otherwise the set is replaced inside the same transaction. An error
	// from mutate aborts the write. A missing or foreign row is
	// job.ErrNotFound.
	MutateJob(ctx context.Context, id, employerID string, refs *skill.Refs, mutate func(j *job.Job) error) (job.Job, error)

	// GetJob never returns soft-deleted rows.
	GetJob(ctx context.Context, id string) (job.Job, error)

	// ListJobs expects a normalized filter and returns one page plus the
	// total match count.
	ListJobs(ctx context.Context, f job.Filter) ([]job.Job, int, error)

	ListJobsByEmployer(ctx context.Context, employerID string) ([]job.Job, error)
}

type SkillStore interface {
	// ListSkills returns every skill, or only ids when ids is non-empty.
	ListSkills(ctx context.Context, ids []string) ([]skill.Skill, error)
	// UpsertSkill matches case-insensitively; created is false on a hit.
	UpsertSkill(ctx context.Context, name string) (s skill.Skill, created bool, err error)
}

type ApplicationStore interface {
	// CreateApplication runs, in one transaction and in this order: the job
	// is visible and open (application.ErrJobNotOpen), no prior application
	// for the pair exists (application.ErrDuplicate), admit passes (its error
	// is returned unchanged). The insert maps a unique violation to
	// application.ErrDuplicate.
	CreateApplication(ctx context.Context, app application.Application, admit func(ctx context.Context) error) (application.Application, error)

	// ListApplicationsForJob returns job.ErrNotFound unless employerID owns a
	// visible job with that id.
	ListApplicationsForJob(ctx context.Context, jobID, employerID string) ([]application.Application, error)

	// ListApplicationsByFreelancer embeds a JobSummary in each result.
	ListApplicationsByFreelancer(ctx context.Context, freelancerID string) ([]application.Application, error)
}

type Store interface {
	UserStore
	JobStore
	SkillStore
	ApplicationStore
}
