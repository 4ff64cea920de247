package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/quickhire/internal/domain/job"
	"github.com/geocoder89/quickhire/internal/domain/skill"
	"github.com/geocoder89/quickhire/internal/domain/user"
	"github.com/geocoder89/quickhire/internal/utils"
	"github.com/geocoder89/quickhire/internal/validation"
)

type EmployerStats struct {
	TotalJobs         int        `json:"totalJobs"`
	ActiveJobs        int        `json:"activeJobs"`
	ClosedJobs        int        `json:"closedJobs"`
	TotalApplications int        `json:"totalApplications"`
	LastLogin         *time.Time `json:"lastLogin"`
}

type EmployerDashboard struct {
	Jobs  []job.Job     `json:"jobs"`
	Stats EmployerStats `json:"stats"`
}

func (s *Service) CreateJob(ctx context.Context, actor Actor, in CreateJobInput) (job.Job, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return job.Job{}, err
	}

	in.normalize()

	fields := validation.Struct(in)
	if in.refs().Empty() {
		fields = append(fields, validation.FieldError{
			Field:   "skills",
			Rule:    "required",
			Message: "at least one skill is required",
		})
	}
	if len(fields) > 0 {
		return job.Job{}, validationError(fields)
	}

	j := job.NewFromCreateRequest(job.CreateRequest{
		EmployerID:  actor.UserID,
		Title:       in.Title,
		Description: in.Description,
		Budget:      in.Budget,
	}, s.clock())

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.jobs.CreateJob(cctx, j, in.refs())
	if err != nil {
		return job.Job{}, mapJobError("create job", err)
	}

	if len(in.SkillNames) > 0 {
		s.invalidateSkills()
	}

	s.log.InfoContext(ctx, "job_created", "job_id", created.ID, "skills", len(created.Skills))

	return created, nil
}

func (s *Service) UpdateJob(ctx context.Context, actor Actor, id string, in UpdateJobInput) (job.Job, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return job.Job{}, err
	}
	if !utils.IsUUID(id) {
		return job.Job{}, notFound("Job")
	}

	in.normalize()

	fields := validation.Struct(in)

	var target job.Status
	if in.Status != nil {
		st, err := job.ParseStatus(*in.Status)
		if err != nil {
			fields = append(fields, statusFieldError())
		}
		target = st
	}
	if refs := in.refs(); refs != nil && refs.Empty() {
		fields = append(fields, validation.FieldError{
			Field:   "skills",
			Rule:    "required",
			Message: "at least one skill is required",
		})
	}
	if len(fields) > 0 {
		return job.Job{}, validationError(fields)
	}

	now := s.clock()
	var from job.Status

	mutate := func(j *job.Job) error {
		if !j.Visible() {
			return job.ErrNotFound
		}

		from = j.Status

		if in.Title != nil {
			j.Title = *in.Title
		}
		if in.Description != nil {
			j.Description = *in.Description
		}
		if in.Budget != nil {
			j.Budget = *in.Budget
		}
		// Re-sending the current status in a full update is not a transition.
		if target != "" && target != j.Status {
			if err := j.Transition(target, now); err != nil {
				return err
			}
		}

		j.UpdatedAt = now
		return nil
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.jobs.MutateJob(cctx, id, actor.UserID, in.refs(), mutate)
	if err != nil {
		return job.Job{}, mapJobError("update job", err)
	}

	if from != updated.Status {
		s.prom.ObserveTransition(string(from), string(updated.Status))
	}
	if in.SkillNames != nil {
		s.invalidateSkills()
	}

	s.log.InfoContext(ctx, "job_updated", "job_id", updated.ID, "status", updated.Status)

	return updated, nil
}

// SetJobStatus applies the transition table. Archiving through here stamps
// the soft-delete marker exactly like ArchiveJob.
func (s *Service) SetJobStatus(ctx context.Context, actor Actor, id string, in SetStatusInput) (job.Job, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return job.Job{}, err
	}

	if fields := validation.Struct(in); len(fields) > 0 {
		return job.Job{}, validationError(fields)
	}
	target, err := job.ParseStatus(in.Status)
	if err != nil {
		return job.Job{}, validationError([]validation.FieldError{statusFieldError()})
	}

	return s.transition(ctx, actor, id, target, "change job status")
}

// ArchiveJob is the delete operation: open or closed becomes archived and
// disappears from every read. A second archive is InvalidTransition.
func (s *Service) ArchiveJob(ctx context.Context, actor Actor, id string) (job.Job, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return job.Job{}, err
	}

	return s.transition(ctx, actor, id, job.StatusArchived, "archive job")
}

func (s *Service) transition(ctx context.Context, actor Actor, id string, target job.Status, op string) (job.Job, error) {
	if !utils.IsUUID(id) {
		return job.Job{}, notFound("Job")
	}

	now := s.clock()
	var from job.Status

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.jobs.MutateJob(cctx, id, actor.UserID, nil, func(j *job.Job) error {
		from = j.Status
		return j.Transition(target, now)
	})
	if err != nil {
		return job.Job{}, mapJobError(op, err)
	}

	s.prom.ObserveTransition(string(from), string(target))
	s.log.InfoContext(ctx, "job_status_changed", "job_id", id, "from", from, "to", target)

	return updated, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (job.Job, error) {
	if !utils.IsUUID(id) {
		return job.Job{}, notFound("Job")
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	j, err := s.jobs.GetJob(cctx, id)
	if err != nil {
		return job.Job{}, mapJobError("load job", err)
	}
	return j, nil
}

// ListJobs normalizes f (status open, page 1, limit 6 by default) and
// returns one newest-first page. A page past the end is empty, not an error.
func (s *Service) ListJobs(ctx context.Context, f job.Filter) (job.Page, error) {
	f = f.Normalize()
	f.SkillIDs = skill.Dedupe(f.SkillIDs)

	for _, id := range f.SkillIDs {
		if !utils.IsUUID(id) {
			return job.Page{}, fieldError("skills", "uuid", "")
		}
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	jobs, total, err := s.jobs.ListJobs(cctx, f)
	if err != nil {
		return job.Page{}, internal("list jobs", err)
	}
	if jobs == nil {
		jobs = []job.Job{}
	}

	return job.Page{
		Jobs:       jobs,
		Pagination: job.Paginate(total, f.Page, f.Limit),
	}, nil
}

func (s *Service) EmployerDashboard(ctx context.Context, actor Actor) (EmployerDashboard, error) {
	if err := requireRole(actor, user.RoleEmployer); err != nil {
		return EmployerDashboard{}, err
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.users.GetUserByID(cctx, actor.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return EmployerDashboard{}, notFound("User")
		}
		return EmployerDashboard{}, internal("load dashboard", err)
	}

	jobs, err := s.jobs.ListJobsByEmployer(cctx, actor.UserID)
	if err != nil {
		return EmployerDashboard{}, internal("load dashboard", err)
	}
	if jobs == nil {
		jobs = []job.Job{}
	}

	stats := EmployerStats{TotalJobs: len(jobs), LastLogin: u.LastLoginAt}
	for _, j := range jobs {
		switch j.Status {
		case job.StatusOpen:
			stats.ActiveJobs++
		case job.StatusClosed:
			stats.ClosedJobs++
		}
		stats.TotalApplications += j.ApplicationCount
	}

	return EmployerDashboard{Jobs: jobs, Stats: stats}, nil
}

func statusFieldError() validation.FieldError {
	return validation.FieldError{
		Field:   "status",
		Rule:    "oneof",
		Param:   "open closed archived",
		Message: validation.Message("oneof", "open closed archived"),
	}
}

func mapJobError(op string, err error) error {
	switch {
	case errors.Is(err, job.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "Job not found", Err: err}
	case errors.Is(err, job.ErrInvalidTransition):
		return &Error{Kind: KindInvalidTransition, Message: "Job status cannot change that way", Err: err}
	case errors.Is(err, skill.ErrUnknownSkill):
		e := fieldError("skills", "exists", "")
		e.Fields[0].Message = "references an unknown skill"
		e.Err = err
		return e
	default:
		return internal(op, err)
	}
}
