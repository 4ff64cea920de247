package marketplace

import (
	"context"
	"errors"

	"github.com/geocoder89/quickhire/internal/domain/application"
	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/security"
	"github.com/geocoder89/quickhire/internal/utils"
	"github.com/geocoder89/quickhire/internal/validation"
)

type FreelancerStats struct {
	TotalApplications  int `json:"totalApplications"`
	ActiveApplications int `json:"activeApplications"`
}

type FreelancerDashboard struct {
	Applications []application.Application `json:"applications"`
	Stats        FreelancerStats           `json:"stats"`
}

type JobApplications struct {
	JobID        string                    `json:"jobId"`
	Count        int                       `json:"count"`
	Applications []application.Application `json:"applications"`
}

// Apply submits an application. Preconditions are checked in a fixed order
// and the first failure wins: the job must be visible and open, the pair
// must be new, then the rate limiter must admit the freelancer. A request
// rejected by an earlier check never consumes a rate-limit slot.
func (s *Service) Apply(ctx context.Context, actor Actor, jobID string, in ApplyInput) (application.Application, error) {
	if err := requireRole(actor, user.RoleFreelancer); err != nil {
		return application.Application{}, err
	}

	in.Message = security.PlainText(in.Message)
	if fields := validation.Struct(in); len(fields) > 0 {
		return application.Application{}, validationError(fields)
	}

	if !utils.IsUUID(jobID) {
		s.prom.ObserveApplication("job_not_available")
		return application.Application{}, newError(KindJobNotAvailable, "Job not found or not accepting applications")
	}

	app := application.NewFromCreateRequest(application.CreateRequest{
		JobID:        jobID,
		FreelancerID: actor.UserID,
		Message:      in.Message,
	}, s.clock())

	admit := func(ctx context.Context) error {
		d, err := s.limiter.CheckAndRecord(ctx, actor.UserID, s.now())
		if err != nil {
			return internal("check rate limit", err)
		}
		if !d.Allowed {
			return rateLimited(d.RetryAfter)
		}
		return nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.apps.CreateApplication(cctx, app, admit)
	if err != nil {
		mapped := mapApplyError(err)
		s.prom.ObserveApplication(applyResult(mapped))
		if KindOf(mapped) == KindRateLimited {
			s.log.WarnContext(ctx, "application_rate_limited", "job_id", jobID)
		}
		return application.Application{}, mapped
	}

	s.prom.ObserveApplication("created")
	s.log.InfoContext(ctx, "application_submitted", "job_id", jobID, "application_id", created.ID)

	return created, nil
}

func (s *Service) ListApplicationsForJob(ctx context.Context, actor Actor, jobID string) (JobApplications, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return JobApplications{}, err
	}
	if !utils.IsUUID(jobID) {
		return JobApplications{}, notFound("Job")
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	apps, err := s.apps.ListApplicationsForJob(cctx, jobID, actor.UserID)
	if err != nil {
		return JobApplications{}, mapJobError("list applications", err)
	}
	if apps == nil {
		apps = []application.Application{}
	}

	return JobApplications{JobID: jobID, Count: len(apps), Applications: apps}, nil
}

func (s *Service) FreelancerDashboard(ctx context.Context, actor Actor) (FreelancerDashboard, error) {
	if err := requireRole(actor, user.RoleFreelancer); err != nil {
		return FreelancerDashboard{}, err
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	apps, err := s.apps.ListApplicationsByFreelancer(cctx, actor.UserID)
	if err != nil {
		return FreelancerDashboard{}, internal("load dashboard", err)
	}
	if apps == nil {
		apps = []application.Application{}
	}

	stats := FreelancerStats{TotalApplications: len(apps)}
	for _, a := range apps {
		if a.Job != nil && a.Job.Status == string(job.StatusOpen) {
			stats.ActiveApplications++
		}
	}

	return FreelancerDashboard{Applications: apps, Stats: stats}, nil
}

func mapApplyError(err error) error {
	if e, ok := AsError(err); ok {
		return e
	}

	switch {
	case errors.Is(err, application.ErrJobNotOpen):
		return &Error{Kind: KindJobNotAvailable, Message: "Job not found or not accepting applications", Err: err}
	case errors.Is(err, application.ErrDuplicate):
		return &Error{Kind: KindDuplicateApplication, Message: "You have already applied to this job", Err: err}
	default:
		return internal("submit application", err)
	}
}

func applyResult(err error) string {
	switch KindOf(err) {
	case KindJobNotAvailable:
		return "job_not_available"
	case KindDuplicateApplication:
		return "duplicate"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}
